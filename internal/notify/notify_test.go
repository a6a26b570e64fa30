package notify

import (
	"bytes"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Notify("Failed to insert a.pdf: disk full")

	assert.Contains(t, buf.String(), "Failed to insert a.pdf: disk full")
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])
}

func TestLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	NewLog(logger).Notify("cannot save")

	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "cannot save")
}

func TestCollector_Concurrent(t *testing.T) {
	t.Parallel()

	var c Collector
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Notify("x")
		}()
	}
	wg.Wait()

	assert.Len(t, c.Messages(), 10)
}

func TestMulti(t *testing.T) {
	t.Parallel()

	var a, b Collector
	Multi{&a, nil, &b}.Notify("hello")

	assert.Equal(t, []string{"hello"}, a.Messages())
	assert.Equal(t, []string{"hello"}, b.Messages())
}
