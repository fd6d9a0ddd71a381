package testutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sjansen/bpmn-to-image/internal/testutil"
)

func TestClock(t *testing.T) {
	require := require.New(t)

	c := testutil.NewClock()
	start := c.Now()
	require.Equal(start, c.Now())

	c.Advance(5 * time.Second)
	require.Equal(5*time.Second, c.Now().Sub(start))

	c.Advance(5 * time.Second)
	require.Equal(10*time.Second, c.Now().Sub(start))
}

func TestClockSleep(t *testing.T) {
	require := require.New(t)

	c := testutil.NewClock()
	start := c.Now()

	c.Sleep(time.Second)
	c.Sleep(2 * time.Second)
	require.Equal(3*time.Second, c.Paused)
	require.Equal(3*time.Second, c.Now().Sub(start))
}
