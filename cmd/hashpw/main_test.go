package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dmitrijs2005/messagely/internal/server/passwords"
	"github.com/stretchr/testify/require"
)

func piped(t *testing.T) {
	t.Helper()
	old := stdinIsTerminal
	t.Cleanup(func() { stdinIsTerminal = old })
	stdinIsTerminal = func() bool { return false }
}

func TestRun_HashesPipedPassword(t *testing.T) {
	piped(t)
	var out, errOut bytes.Buffer

	err := run([]string{"-w", "4"}, strings.NewReader("hunter2\n"), &out, &errOut)
	require.NoError(t, err)

	hashed := strings.TrimSpace(out.String())
	h := passwords.NewHasher(4)
	require.True(t, h.Verify("hunter2", hashed))
	require.False(t, h.Verify("hunter3", hashed))
}

func TestRun_EmptyPassword(t *testing.T) {
	piped(t)
	var out, errOut bytes.Buffer
	err := run(nil, strings.NewReader("\n"), &out, &errOut)
	require.Error(t, err)
	require.Empty(t, out.String())
}

func TestRun_BadFlag(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run([]string{"-nope"}, strings.NewReader("pw\n"), &out, &errOut)
	require.Error(t, err)
}
