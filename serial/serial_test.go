// SPDX-License-Identifier: MIT
//
// Copyright © 2020 Kent Gibson <warthog618@gmail.com>.

package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	// bogus path
	m, err := New(WithPort("bogusmodem"))
	assert.NotNil(t, err)
	assert.Nil(t, m)
	assert.Contains(t, err.Error(), "bogusmodem")
}

func TestOptions(t *testing.T) {
	cfg := defaultConfig
	for _, option := range []Option{
		WithPort("/dev/ttyACM0"),
		WithBaud(921600),
		WithReadTimeout(time.Second),
	} {
		option(&cfg)
	}
	assert.Equal(t, Config{port: "/dev/ttyACM0", baud: 921600, readTimeout: time.Second}, cfg)
	// defaults untouched
	assert.Equal(t, 115200, DefaultBaud())
	assert.NotEmpty(t, DefaultPort())
}

func TestPorts(t *testing.T) {
	// availability depends on the host, so only check for consistency
	ports, err := Ports()
	if err != nil {
		assert.Nil(t, ports)
	}
}
