package ir

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestStateDigestDeterministic(t *testing.T) {
	data := []byte(`{"phase":"main"}`)
	a := StateDigest(data)
	b := StateDigest(data)

	assert.Equal(t, a, b)
	assert.Regexp(t, hexDigest, a)
	assert.NotEqual(t, a, StateDigest([]byte(`{"phase":"end"}`)))
}

func TestDigestDomainsAreSeparated(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, StateDigest(data), GameDefDigest(data))
}

func TestHashWithDomainSeparator(t *testing.T) {
	// "ab"+0+"c" must differ from "a"+0+"bc".
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestMoveDigest(t *testing.T) {
	move := Object{"action_id": Str("pass"), "params": Object{}}

	a, err := MoveDigest("m1", 1, move)
	require.NoError(t, err)
	assert.Regexp(t, hexDigest, a)

	b, err := MoveDigest("m1", 2, move)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "sequence number is part of the identity")

	c, err := MoveDigest("m2", 1, move)
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "match id is part of the identity")

	_, err = MoveDigest("m1", 1, Object{"bad": nil})
	assert.Error(t, err)
}
