package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zondarr/zondarr-api/services"
)

func TestRedemptionTokenRoundTrip(t *testing.T) {
	token, err := services.IssueRedemptionToken("TESTCODE2345", "secret")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	assert.True(t, services.VerifyRedemptionToken(token, "TESTCODE2345", "secret"))
}

func TestVerifyRedemptionTokenRejectsWrongCode(t *testing.T) {
	token, err := services.IssueRedemptionToken("TESTCODE2345", "secret")
	assert.NoError(t, err)

	assert.False(t, services.VerifyRedemptionToken(token, "OTHERCODE234", "secret"))
}

func TestVerifyRedemptionTokenRejectsWrongSecret(t *testing.T) {
	token, err := services.IssueRedemptionToken("TESTCODE2345", "secret")
	assert.NoError(t, err)

	assert.False(t, services.VerifyRedemptionToken(token, "TESTCODE2345", "other"))
}

func TestVerifyRedemptionTokenRejectsGarbage(t *testing.T) {
	assert.False(t, services.VerifyRedemptionToken("not-a-token", "TESTCODE2345", "secret"))
	assert.False(t, services.VerifyRedemptionToken("", "TESTCODE2345", "secret"))
}
