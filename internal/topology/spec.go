package topology

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/validation"
)

// Spec is the raw, unvalidated topology as written by the user.
//
// Either Groups or ClusterSize is set. In simple mode the CPU, Memory,
// NodeSelector and Storage fields apply to every generated data group.
type Spec struct {
	Groups []GroupSpec `yaml:"groups,omitempty"`

	ClusterSize  *int              `yaml:"clusterSize,omitempty"`
	CPU          string            `yaml:"cpu,omitempty"`
	Memory       string            `yaml:"memory,omitempty"`
	NodeSelector map[string]string `yaml:"nodeSelector,omitempty"`
	Storage      Storage           `yaml:"storage,omitempty"`
}

// GroupSpec is one declared node group.
type GroupSpec struct {
	Roles        []string          `yaml:"roles"`
	Identity     string            `yaml:"identity,omitempty"`
	Replicas     *int32            `yaml:"replicas,omitempty"`
	Resources    ResourceSpec      `yaml:"resources"`
	NodeSelector map[string]string `yaml:"nodeSelector,omitempty"`
	Storage      Storage           `yaml:"storage,omitempty"`
}

// ResourceSpec holds limits and requests as written.
type ResourceSpec struct {
	Limits   ResourceValues `yaml:"limits"`
	Requests ResourceValues `yaml:"requests,omitempty"`
}

// ResourceValues is a cpu/memory pair in quantity notation.
type ResourceValues struct {
	CPU    string `yaml:"cpu,omitempty"`
	Memory string `yaml:"memory,omitempty"`
}

// Parse decodes and resolves a topology document.
func Parse(data []byte) (*Topology, error) {
	spec, err := ParseSpec(data)
	if err != nil {
		return nil, err
	}
	return spec.Resolve()
}

// ParseSpec decodes a topology document without resolving it.
// Unknown fields are rejected.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Problems: []error{fmt.Errorf("%w: %v", ErrMalformed, err)}}
	}
	return &spec, nil
}

// Load reads and resolves a topology file.
func Load(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology file: %w", err)
	}
	return Parse(data)
}

// IsSimple reports whether the spec uses cluster-size mode.
func (s *Spec) IsSimple() bool {
	return s.ClusterSize != nil
}

// Resolve validates the spec and returns the resulting topology.
// All problems are collected into a single ValidationError.
func (s *Spec) Resolve() (*Topology, error) {
	if s.IsSimple() {
		if len(s.Groups) > 0 {
			return nil, &ValidationError{Problems: []error{ErrModeConflict}}
		}
		if *s.ClusterSize < 1 {
			return nil, &ValidationError{Problems: []error{fmt.Errorf("%w, got %d", ErrInvalidClusterSize, *s.ClusterSize)}}
		}
		return resolveGroups(s.expand())
	}

	var errs []error
	if s.CPU != "" || s.Memory != "" || len(s.NodeSelector) > 0 || s.Storage.ClaimPrefix != "" {
		errs = append(errs, fmt.Errorf("%w: cpu, memory, nodeSelector and storage.claimPrefix require clusterSize", ErrModeConflict))
	}
	topo, err := resolveGroups(s.Groups)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			errs = append(errs, ve.Problems...)
		} else {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Problems: errs}
	}
	return topo, nil
}

func resolveGroups(specs []GroupSpec) (*Topology, error) {
	var errs []error
	topo := &Topology{}
	seen := make(map[string]int)
	dataIndex := 0

	// Defaults skip identities that are declared explicitly or already
	// assigned, so an unnamed group never collides with a named one.
	taken := make(map[string]bool)
	for _, gs := range specs {
		if role, err := groupRole(gs.Roles); err == nil && role == RoleData && gs.Identity != "" {
			taken[gs.Identity] = true
		}
	}
	defaultIdentity := func(index int) string {
		for taken[strconv.Itoa(index)] {
			index++
		}
		id := strconv.Itoa(index)
		taken[id] = true
		return id
	}

	for i, gs := range specs {
		path := fmt.Sprintf("groups[%d]", i)

		role, err := groupRole(gs.Roles)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}

		g, problems := resolveGroup(path, gs)
		errs = append(errs, problems...)
		g.Role = role

		switch role {
		case RoleMaster:
			if topo.Masters != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, ErrDuplicateMaster))
				continue
			}
			topo.Masters = &g
		case RoleClient:
			if topo.Clients != nil {
				errs = append(errs, fmt.Errorf("%s: %w", path, ErrDuplicateClient))
				continue
			}
			topo.Clients = &g
		case RoleData:
			if g.Identity == "" {
				g.Identity = defaultIdentity(dataIndex)
			}
			if prev, ok := seen[g.Identity]; ok {
				errs = append(errs, fmt.Errorf("%s: %w: %q already used by groups[%d]", path, ErrDuplicateIdentity, g.Identity, prev))
			} else {
				seen[g.Identity] = i
			}
			dataIndex++
			topo.Data = append(topo.Data, g)
		}
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Problems: errs}
	}
	return topo, nil
}

// groupRole returns the single role of a group. Masters mixed with any
// other role get their own error so the rule is easy to spot.
func groupRole(roles []string) (Role, error) {
	if len(roles) == 0 {
		return "", ErrNoRole
	}

	var hasMaster bool
	for _, r := range roles {
		if Role(r) == RoleMaster {
			hasMaster = true
		}
	}
	if hasMaster && len(roles) > 1 {
		return "", fmt.Errorf("%w: %s", ErrMasterMixed, strings.Join(roles, ","))
	}
	if len(roles) > 1 {
		return "", fmt.Errorf("%w, got %s", ErrMultipleRoles, strings.Join(roles, ","))
	}

	role := Role(roles[0])
	if !role.IsValid() {
		return "", fmt.Errorf("%w %q", ErrUnknownRole, roles[0])
	}
	return role, nil
}

func resolveGroup(path string, gs GroupSpec) (Group, []error) {
	var errs []error
	g := Group{
		Identity:     gs.Identity,
		Replicas:     1,
		NodeSelector: gs.NodeSelector,
		Storage:      gs.Storage,
	}

	if gs.Replicas != nil {
		if *gs.Replicas < 0 {
			errs = append(errs, fmt.Errorf("%s: %w, got %d", path, ErrNegativeReplicas, *gs.Replicas))
		}
		g.Replicas = *gs.Replicas
	}

	if gs.Identity != "" {
		for _, msg := range validation.IsDNS1123Label(gs.Identity) {
			errs = append(errs, fmt.Errorf("%s: %w: %q: %s", path, ErrInvalidIdentity, gs.Identity, msg))
		}
	}

	res, resErrs := resolveResources(path, gs.Resources)
	errs = append(errs, resErrs...)
	g.Resources = res

	if g.Storage.Type == "" {
		g.Storage.Type = StorageEmptyDir
	}
	errs = append(errs, validateStorage(path, g.Storage, g.Replicas)...)

	return g, errs
}

func resolveResources(path string, rs ResourceSpec) (Resources, []error) {
	var errs []error
	res := Resources{
		Limits:   corev1.ResourceList{},
		Requests: corev1.ResourceList{},
	}

	parse := func(field, value string, required bool) (resource.Quantity, bool) {
		if value == "" {
			if required {
				errs = append(errs, fmt.Errorf("%s: %w: %s", path, ErrMissingLimit, field))
			}
			return resource.Quantity{}, false
		}
		q, err := resource.ParseQuantity(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w: %s=%q", path, ErrInvalidQuantity, field, value))
			return resource.Quantity{}, false
		}
		return q, true
	}

	if q, ok := parse("limits.cpu", rs.Limits.CPU, true); ok {
		res.Limits[corev1.ResourceCPU] = q
	}
	if q, ok := parse("limits.memory", rs.Limits.Memory, true); ok {
		res.Limits[corev1.ResourceMemory] = q
	}
	if q, ok := parse("requests.cpu", rs.Requests.CPU, false); ok {
		res.Requests[corev1.ResourceCPU] = q
	}
	if q, ok := parse("requests.memory", rs.Requests.Memory, false); ok {
		res.Requests[corev1.ResourceMemory] = q
	} else if rs.Requests.Memory == "" {
		if limit, ok := res.Limits[corev1.ResourceMemory]; ok {
			res.Requests[corev1.ResourceMemory] = limit.DeepCopy()
		}
	}

	for _, name := range []corev1.ResourceName{corev1.ResourceCPU, corev1.ResourceMemory} {
		req, ok := res.Requests[name]
		if !ok {
			continue
		}
		if limit, ok := res.Limits[name]; ok && req.Cmp(limit) > 0 {
			errs = append(errs, fmt.Errorf("%s: %w: %s request %s > limit %s", path, ErrRequestAboveLimit, name, req.String(), limit.String()))
		}
	}

	return res, errs
}

func validateStorage(path string, s Storage, replicas int32) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %w: %s", path, ErrInvalidStorage, fmt.Sprintf(format, args...)))
	}

	if !s.Type.IsValid() {
		fail("unknown type %q", s.Type)
		return errs
	}

	switch s.Type {
	case StoragePVC:
		if s.ClaimName == "" && s.Size == "" {
			fail("pvc storage needs size or claimName")
		}
		if s.Size != "" {
			if _, err := resource.ParseQuantity(s.Size); err != nil {
				fail("size %q is not a quantity", s.Size)
			}
		}
		if s.ClaimName != "" && replicas > 1 {
			fail("claimName can only back a single replica, got %d", replicas)
		}
	case StorageHostMount:
		if s.HostPath == "" {
			fail("hostmount storage needs hostPath")
		}
	}
	return errs
}
