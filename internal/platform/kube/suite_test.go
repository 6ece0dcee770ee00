//go:build integration

// Integration tests against a real API server started by envtest.
//
// Run with:
//
//	KUBEBUILDER_ASSETS="$(setup-envtest use -p path)" go test -v -tags=integration ./internal/platform/kube/...
package kube

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/envtest"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/imamik/estopo/internal/apply"
	"github.com/imamik/estopo/internal/plan"
	"github.com/imamik/estopo/internal/reconcile"
	"github.com/imamik/estopo/internal/topology"
)

var (
	cfg       *rest.Config
	clientset kubernetes.Interface
	testEnv   *envtest.Environment
	ctx       context.Context
	cancel    context.CancelFunc
)

func TestKubeIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Kube Platform Integration Suite")
}

var _ = BeforeSuite(func() {
	logf.SetLogger(zap.New(zap.WriteTo(GinkgoWriter), zap.UseDevMode(true)))

	ctx, cancel = context.WithCancel(context.Background())

	By("bootstrapping test environment with real kube-apiserver and etcd")
	testEnv = &envtest.Environment{}

	var err error
	cfg, err = testEnv.Start()
	Expect(err).NotTo(HaveOccurred())
	Expect(cfg).NotTo(BeNil())

	clientset, err = kubernetes.NewForConfig(cfg)
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	cancel()
	By("tearing down the test environment")
	Expect(testEnv.Stop()).To(Succeed())
})

var _ = Describe("Kube platform", func() {
	const timeout = 30 * time.Second

	var (
		namespace string
		platform  *Platform
	)

	units := func(dataReplicas int32) []plan.Unit {
		master := testUnit("master", topology.RoleMaster, 3)
		data := testUnit("data-0", topology.RoleData, dataReplicas)
		return []plan.Unit{master, data}
	}

	BeforeEach(func() {
		ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{GenerateName: "estopo-"}}
		created, err := clientset.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
		Expect(err).NotTo(HaveOccurred())
		namespace = created.Name

		platform, err = NewForConfig(cfg, "logs")
		Expect(err).NotTo(HaveOccurred())
	})

	It("creates, then converges to no-ops", func() {
		applier := apply.New(platform, apply.WithMasterReadiness(false, 0, 0))

		observed, err := platform.CurrentState(ctx, namespace)
		Expect(err).NotTo(HaveOccurred())
		Expect(observed).To(BeEmpty())

		report := applier.Apply(ctx, namespace, reconcile.Diff(units(1), observed))
		Expect(report.Err()).NotTo(HaveOccurred())
		Expect(report.Counts()).To(HaveKeyWithValue(apply.OutcomeCreated, 2))

		Eventually(func(g Gomega) {
			observed, err := platform.CurrentState(ctx, namespace)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(observed).To(HaveLen(2))
			for _, a := range reconcile.Diff(units(1), observed) {
				g.Expect(a.Kind).To(Equal(reconcile.KindNoOp), a.Name())
			}
		}, timeout, time.Second).Should(Succeed())
	})

	It("updates a changed unit and leaves orphans in place", func() {
		applier := apply.New(platform, apply.WithMasterReadiness(false, 0, 0))
		Expect(applier.Apply(ctx, namespace, reconcile.Diff(units(1), nil)).Err()).NotTo(HaveOccurred())

		observed, err := platform.CurrentState(ctx, namespace)
		Expect(err).NotTo(HaveOccurred())

		planned := []plan.Unit{
			testUnit("master", topology.RoleMaster, 3),
			testUnit("data-1", topology.RoleData, 2),
		}

		report := applier.Apply(ctx, namespace, reconcile.Diff(planned, observed))
		Expect(report.Err()).NotTo(HaveOccurred())

		orphan, ok := report.Result("data-0")
		Expect(ok).To(BeTrue())
		Expect(orphan.Outcome).To(Equal(apply.OutcomeOrphan))

		_, err = clientset.AppsV1().StatefulSets(namespace).Get(ctx, "logs-data-0", metav1.GetOptions{})
		Expect(err).NotTo(HaveOccurred())
	})
})
