package naming

import "testing"

func TestNamingFunctions(t *testing.T) {
	t.Parallel()
	cluster := "logs"

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "Unit without identity",
			got:      Unit("master", ""),
			expected: "master",
		},
		{
			name:     "Unit with identity",
			got:      Unit("data", "0"),
			expected: "data-0",
		},
		{
			name:     "StatefulSet",
			got:      StatefulSet(cluster, "data-hot"),
			expected: "logs-data-hot",
		},
		{
			name:     "DiscoveryService",
			got:      DiscoveryService(cluster),
			expected: "logs-discovery",
		},
		{
			name:     "CertSecret",
			got:      CertSecret(cluster, "client"),
			expected: "logs-client-certs",
		},
		{
			name:     "BundleSecret",
			got:      BundleSecret(cluster),
			expected: "logs-cert-bundle",
		},
		{
			name:     "BundleFile",
			got:      BundleFile(cluster),
			expected: "logs.yaml",
		},
		{
			name:     "BundleObjectKey with prefix",
			got:      BundleObjectKey("certs/prod", cluster),
			expected: "certs/prod/logs.yaml",
		},
		{
			name:     "BundleObjectKey without prefix",
			got:      BundleObjectKey("", cluster),
			expected: "logs.yaml",
		},
		{
			name:     "VolumeClaim",
			got:      VolumeClaim("es-data", 2),
			expected: "es-data-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tt.got)
			}
		})
	}
}
