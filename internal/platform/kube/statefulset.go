package kube

import (
	"fmt"
	"strconv"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/utils/ptr"

	"github.com/imamik/estopo/internal/certs"
	"github.com/imamik/estopo/internal/plan"
	"github.com/imamik/estopo/internal/reconcile"
	"github.com/imamik/estopo/internal/topology"
	"github.com/imamik/estopo/internal/util/labels"
	"github.com/imamik/estopo/internal/util/naming"
)

// Annotations carried by every StatefulSet and its pod template.
const (
	AnnotationCertSecret      = "estopo.io/cert-secret"
	AnnotationCertFingerprint = "estopo.io/cert-fingerprint"
)

const (
	ContainerName = "elasticsearch"

	HTTPPort      = 9200
	TransportPort = 9300

	dataVolume  = "elasticsearch-storage"
	certsVolume = "elasticsearch-certs"

	dataPath  = "/usr/share/elasticsearch/data"
	certsPath = "/usr/share/elasticsearch/config/certs"
)

// BuildStatefulSet renders the StatefulSet for a unit.
func BuildStatefulSet(namespace string, unit plan.Unit) (*appsv1.StatefulSet, error) {
	annotations := map[string]string{
		AnnotationCertSecret:      unit.CertRef.SecretName,
		AnnotationCertFingerprint: unit.CertRef.Fingerprint,
	}

	podSpec := corev1.PodSpec{
		NodeSelector: unit.NodeSelector,
		Containers: []corev1.Container{{
			Name:  ContainerName,
			Image: unit.Image,
			Env:   nodeEnv(unit),
			Ports: []corev1.ContainerPort{
				{Name: "http", ContainerPort: HTTPPort, Protocol: corev1.ProtocolTCP},
				{Name: "transport", ContainerPort: TransportPort, Protocol: corev1.ProtocolTCP},
			},
			Resources: corev1.ResourceRequirements{
				Limits:   unit.Resources.Limits,
				Requests: unit.Resources.Requests,
			},
			ReadinessProbe: &corev1.Probe{
				ProbeHandler: corev1.ProbeHandler{
					TCPSocket: &corev1.TCPSocketAction{Port: intstr.FromInt32(HTTPPort)},
				},
				InitialDelaySeconds: 10,
				PeriodSeconds:       5,
			},
			VolumeMounts: []corev1.VolumeMount{
				{Name: dataVolume, MountPath: dataPath},
				{Name: certsVolume, MountPath: certsPath, ReadOnly: true},
			},
		}},
		Volumes: []corev1.Volume{{
			Name: certsVolume,
			VolumeSource: corev1.VolumeSource{
				Secret: &corev1.SecretVolumeSource{SecretName: unit.CertRef.SecretName},
			},
		}},
	}

	sts := &appsv1.StatefulSet{
		ObjectMeta: metav1.ObjectMeta{
			Name:        naming.StatefulSet(unit.Cluster, unit.Name),
			Namespace:   namespace,
			Labels:      unit.Labels,
			Annotations: annotations,
		},
		Spec: appsv1.StatefulSetSpec{
			Replicas:            ptr.To(unit.Replicas),
			ServiceName:         naming.DiscoveryService(unit.Cluster),
			PodManagementPolicy: appsv1.ParallelPodManagement,
			Selector: &metav1.LabelSelector{
				MatchLabels: labels.SelectorForUnit(unit.Cluster, unit.Name),
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels:      unit.Labels,
					Annotations: annotations,
				},
				Spec: podSpec,
			},
		},
	}

	if err := attachStorage(sts, unit.Storage); err != nil {
		return nil, fmt.Errorf("unit %s: %w", unit.Name, err)
	}
	return sts, nil
}

func attachStorage(sts *appsv1.StatefulSet, storage topology.Storage) error {
	pod := &sts.Spec.Template.Spec

	switch storage.Type {
	case topology.StoragePVC:
		if storage.ClaimName != "" {
			pod.Volumes = append(pod.Volumes, corev1.Volume{
				Name: dataVolume,
				VolumeSource: corev1.VolumeSource{
					PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{ClaimName: storage.ClaimName},
				},
			})
			return nil
		}

		size, err := resource.ParseQuantity(storage.Size)
		if err != nil {
			return fmt.Errorf("invalid storage size %q: %w", storage.Size, err)
		}
		claim := corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{Name: dataVolume},
			Spec: corev1.PersistentVolumeClaimSpec{
				AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
				Resources: corev1.VolumeResourceRequirements{
					Requests: corev1.ResourceList{corev1.ResourceStorage: size},
				},
			},
		}
		if storage.StorageClass != "" {
			claim.Spec.StorageClassName = ptr.To(storage.StorageClass)
		}
		if len(storage.PVSelector) > 0 {
			claim.Spec.Selector = &metav1.LabelSelector{MatchLabels: storage.PVSelector}
		}
		sts.Spec.VolumeClaimTemplates = []corev1.PersistentVolumeClaim{claim}

	case topology.StorageHostMount:
		pod.Volumes = append(pod.Volumes, corev1.Volume{
			Name: dataVolume,
			VolumeSource: corev1.VolumeSource{
				HostPath: &corev1.HostPathVolumeSource{
					Path: storage.HostPath,
					Type: ptrHostPathType(corev1.HostPathDirectoryOrCreate),
				},
			},
		})

	default:
		pod.Volumes = append(pod.Volumes, corev1.Volume{
			Name:         dataVolume,
			VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}},
		})
	}
	return nil
}

// nodeEnv renders the node settings of a unit. The image reads dotted
// environment variables as configuration settings.
func nodeEnv(unit plan.Unit) []corev1.EnvVar {
	master, data, ingest := false, false, false
	switch unit.Role {
	case topology.RoleMaster:
		master = true
	case topology.RoleClient:
		ingest = true
	case topology.RoleData:
		data = true
	}

	return []corev1.EnvVar{
		{Name: "cluster.name", Value: unit.Cluster},
		{Name: "node.name", ValueFrom: &corev1.EnvVarSource{
			FieldRef: &corev1.ObjectFieldSelector{FieldPath: "metadata.name"},
		}},
		{Name: "node.master", Value: strconv.FormatBool(master)},
		{Name: "node.data", Value: strconv.FormatBool(data)},
		{Name: "node.ingest", Value: strconv.FormatBool(ingest)},
		{Name: "discovery.zen.ping.unicast.hosts", Value: naming.DiscoveryService(unit.Cluster)},
		{Name: "discovery.zen.minimum_master_nodes", Value: strconv.Itoa(int(unit.Settings.MastersQuorum))},
		{Name: "gateway.expected_data_nodes", Value: strconv.Itoa(int(unit.Settings.ExpectedDataNodes))},
		{Name: "gateway.expected_nodes", Value: strconv.Itoa(int(unit.Settings.ExpectedNodes))},
	}
}

// StateOf reads the observed state of a unit back from its StatefulSet.
func StateOf(cluster string, sts *appsv1.StatefulSet) reconcile.UnitState {
	state := reconcile.UnitState{
		Name:          unitName(cluster, sts),
		Role:          topology.Role(roleLabel(sts.Labels)),
		Replicas:      ptr.Deref(sts.Spec.Replicas, 1),
		ReadyReplicas: sts.Status.ReadyReplicas,
		NodeSelector:  sts.Spec.Template.Spec.NodeSelector,
		CertRef: certs.Ref{
			SecretName:  sts.Annotations[AnnotationCertSecret],
			Fingerprint: sts.Annotations[AnnotationCertFingerprint],
		},
	}

	for _, c := range sts.Spec.Template.Spec.Containers {
		if c.Name != ContainerName {
			continue
		}
		state.Image = c.Image
		state.Resources = topology.Resources{
			Limits:   c.Resources.Limits,
			Requests: c.Resources.Requests,
		}
		break
	}
	return state
}

func unitName(cluster string, sts *appsv1.StatefulSet) string {
	if name := sts.Labels[labels.KeyUnit]; name != "" {
		return name
	}
	return strings.TrimPrefix(sts.Name, cluster+"-")
}

func roleLabel(l map[string]string) string {
	if role := l[labels.KeyRole]; role != "" {
		return role
	}
	return l[labels.LegacyKeyRole]
}

func ptrHostPathType(t corev1.HostPathType) *corev1.HostPathType {
	return &t
}
