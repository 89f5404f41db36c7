package natsinfra

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (c *recordingConn) Publish(subj string, data []byte) error {
	c.subjects = append(c.subjects, subj)
	c.payloads = append(c.payloads, data)
	return c.err
}

func (c *recordingConn) Drain() error { return nil }

func TestPublisher_NilIsNoop(t *testing.T) {
	var p *Publisher
	assert.NotPanics(t, func() {
		p.Publish(SubjectPostLiked, PostEvent{PostID: "p1"})
		p.Close()
	})
}

func TestPublisher_EncodesEvent(t *testing.T) {
	c := &recordingConn{}
	p := &Publisher{nc: c}

	p.Publish(SubjectPostLiked, PostEvent{PostID: "p1", UserID: "u1", Active: true})

	require.Len(t, c.subjects, 1)
	assert.Equal(t, "post.liked", c.subjects[0])
	var ev PostEvent
	require.NoError(t, json.Unmarshal(c.payloads[0], &ev))
	assert.Equal(t, "p1", ev.PostID)
	assert.True(t, ev.Active)
	assert.False(t, ev.At.IsZero())
}

func TestPublisher_SwallowsErrors(t *testing.T) {
	p := &Publisher{nc: &recordingConn{err: errors.New("no responders")}}
	assert.NotPanics(t, func() { p.Publish(SubjectPostCreated, PostEvent{PostID: "p1"}) })
}
