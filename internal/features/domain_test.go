package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		want   DomainInfo
	}{
		{
			name:   "registered com domain",
			domain: "google.com",
			want: DomainInfo{
				Name:         "google.com",
				PublicSuffix: "com",
				Registered:   "google.com",
				Labels:       2,
				ICANN:        true,
				Valid:        true,
			},
		},
		{
			name:   "multi-label suffix with trailing dot",
			domain: "WWW.BBC.CO.UK.",
			want: DomainInfo{
				Name:         "www.bbc.co.uk",
				PublicSuffix: "co.uk",
				Registered:   "bbc.co.uk",
				Labels:       4,
				ICANN:        true,
				Valid:        true,
			},
		},
		{
			name:   "empty",
			domain: "",
			want:   DomainInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.domain))
		})
	}
}
