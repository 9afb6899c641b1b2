package scraper

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
)

func TestIsTrackerHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"google-analytics.com", true},
		{"www.google-analytics.com", true},
		{"BAM.NR-DATA.NET", true},
		{"armsweb.co.pierce.wa.us", false},
		{"analytics.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, isTrackerHost(tt.host))
		})
	}
}

func TestBlockedSet(t *testing.T) {
	got := blockedSet([]string{"Image", " Font ", "Script", "bogus"})

	assert.Len(t, got, 2)
	assert.Contains(t, got, proto.NetworkResourceTypeImage)
	assert.Contains(t, got, proto.NetworkResourceTypeFont)
	assert.NotContains(t, got, proto.NetworkResourceTypeScript)
}

func TestToHeadersMap(t *testing.T) {
	m := toHeadersMap(map[string]string{"Referer": "https://armsweb.co.pierce.wa.us/"})
	assert.Equal(t, "https://armsweb.co.pierce.wa.us/", m["Referer"].Str())
}
