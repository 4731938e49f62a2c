package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBrokersCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"brokers"})

	require.NoError(t, cmd.Execute())
	require.Equal(t, []string{"kafka", "mqtt", "nats", "rabbitmq", "redis"}, strings.Fields(out.String()))
}

func TestRootCmd_RejectsBadScenario(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--scenario", "bogus"})

	err := cmd.Execute()
	require.ErrorContains(t, err, "unknown test scenario")
}

func TestRootCmd_UnknownBroker(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--scenario", "relay", "--broker", "carrier-pigeon", "--log-level", "error"})

	err := cmd.Execute()
	require.ErrorContains(t, err, "unknown broker")
}
