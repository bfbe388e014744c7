package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"absent", []string{"serve"}, ""},
		{"separate value", []string{"--config", "/etc/exodash.yaml", "serve"}, "/etc/exodash.yaml"},
		{"inline value", []string{"summary", "--config=dev.yaml"}, "dev.yaml"},
		{"missing value", []string{"serve", "--config"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, configPath(tt.args))
		})
	}
}
