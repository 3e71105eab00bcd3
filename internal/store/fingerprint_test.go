package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("api", "h1", "Disk 85% full")
	b := Fingerprint("api", "h1", "Disk 85% full")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestFingerprintCollapsesDigitRuns(t *testing.T) {
	a := Fingerprint("api", "h1", "Disk 85% full")
	b := Fingerprint("api", "h1", "Disk 92% full")
	assert.Equal(t, a, b, "only digits differ, fingerprints must match")

	c := Fingerprint("api", "h1", "Disk 1234% full")
	assert.Equal(t, a, c, "digit runs of any length collapse to one placeholder")
}

func TestFingerprintCaseInsensitiveTitle(t *testing.T) {
	assert.Equal(t,
		Fingerprint("api", "h1", "High Latency"),
		Fingerprint("api", "h1", "high latency"))
}

func TestFingerprintDistinguishesServiceAndHost(t *testing.T) {
	base := Fingerprint("api", "h1", "High latency")
	assert.NotEqual(t, base, Fingerprint("web", "h1", "High latency"))
	assert.NotEqual(t, base, Fingerprint("api", "h2", "High latency"))
	assert.NotEqual(t, base, Fingerprint("api", "h1", "Low latency"))
}
