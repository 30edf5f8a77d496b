package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACSignatureService_SignAndVerify(t *testing.T) {
	svc := NewHMACSignatureService()

	payload := `{"swap_id":"swap-123","status":"settled"}`
	sig := svc.Sign("secret", payload)
	assert.Len(t, sig, 64) // hex-encoded SHA-256

	assert.True(t, svc.Verify("secret", payload, sig))
	assert.False(t, svc.Verify("wrong-secret", payload, sig))
	assert.False(t, svc.Verify("secret", payload+" ", sig))
	assert.False(t, svc.Verify("secret", payload, "deadbeef"))
}

func TestHMACSignatureService_Deterministic(t *testing.T) {
	svc := NewHMACSignatureService()

	assert.Equal(t, svc.Sign("k", "p"), svc.Sign("k", "p"))
	assert.NotEqual(t, svc.Sign("k", "p"), svc.Sign("k", "q"))
}
