package gitx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeRepoName(t *testing.T) {
	assert.Equal(t, "owner_name", sanitizeRepoName("owner/name"))
	assert.Equal(t, "https___host_a_b", sanitizeRepoName("https://host/a/b"))
}

func TestShort(t *testing.T) {
	assert.Equal(t, "abcdef12", short("abcdef1234567890"))
	assert.Equal(t, "abc", short("abc"))
}
