package main

import (
	"errors"
	"testing"

	"illiterate/internal/diag"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	a := diag.WithPath(diag.Parse(1, "unterminated block comment"), "a.rs")
	b := errors.New("b")
	c := errors.New("c")

	got := flatten(errors.Join(errors.Join(a, nil), errors.Join(b, c)))
	assert.Equal(t, []error{a, b, c}, got)
	assert.Equal(t, []error{b}, flatten(b))
}

func TestRootCommand(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"supports", "build", "check", "watch", "cache"} {
		assert.True(t, names[want], want)
	}

	var cacheSubs []string
	for _, c := range cacheCmd.Commands() {
		cacheSubs = append(cacheSubs, c.Name())
	}
	assert.ElementsMatch(t, []string{"stats", "prune"}, cacheSubs)
	assert.Equal(t, "720h0m0s", cachePruneCmd.Flags().Lookup("older-than").DefValue)
	assert.Error(t, rootCmd.Args(rootCmd, []string{"unexpected"}))
	assert.NoError(t, supportsCmd.Args(supportsCmd, []string{"html"}))
	assert.Error(t, supportsCmd.Args(supportsCmd, nil))
}
