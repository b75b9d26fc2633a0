package core

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircterm/internal/proto"
)

// DefaultFloodDelay separates consecutive fragments of a long message.
const DefaultFloodDelay = time.Second

// SplitPayload cuts text into consecutive pieces of at most size bytes.
// Cuts fall on byte offsets, not word or rune boundaries. Nothing fits a
// size that is not positive, so it yields no pieces.
func SplitPayload(text string, size int) []string {
	if text == "" || size <= 0 {
		return nil
	}
	parts := make([]string, 0, (len(text)+size-1)/size)
	for len(text) > size {
		parts = append(parts, text[:size])
		text = text[size:]
	}
	return append(parts, text)
}

// EchoFunc shows a sent line locally.
type EchoFunc func(msg *proto.Message)

// Pacer sends queued lines in order. A line queued while the pacer is idle
// goes out at once; every following line waits delay after the previous
// one. Waiting happens on the Scheduler, so nothing blocks in between.
type Pacer struct {
	out   Sender
	echo  EchoFunc
	sched Scheduler
	delay time.Duration
	log   *zerolog.Logger

	queue []Outgoing
	timer Timer
	// gen invalidates callbacks of timers stopped after they fired.
	gen int
}

// NewPacer builds a pacer writing to out and echoing through echo.
func NewPacer(out Sender, echo EchoFunc, sched Scheduler, delay time.Duration, logger *zerolog.Logger) *Pacer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Pacer{out: out, echo: echo, sched: sched, delay: delay, log: logger}
}

// Enqueue appends lines to the queue and sends the head if the pacer is idle.
func (p *Pacer) Enqueue(items ...Outgoing) error {
	p.queue = append(p.queue, items...)
	if p.timer != nil || len(p.queue) == 0 {
		p.log.Debug().Int("pending", p.pending()).Msg("queued outbound lines")
		return nil
	}
	return p.sendNext()
}

// pending returns the number of lines not yet sent.
func (p *Pacer) pending() int {
	return len(p.queue)
}

// Stop cancels the pending timer and drops the queue.
func (p *Pacer) Stop() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen++
	if n := p.pending(); n > 0 {
		p.log.Debug().Int("dropped", n).Msg("dropped outbound lines")
	}
	p.queue = nil
}

func (p *Pacer) sendNext() error {
	item := p.queue[0]
	p.queue = p.queue[1:]

	if err := p.out.Send(item.Line); err != nil {
		p.Stop()
		return err
	}
	if p.echo != nil && item.Echo != nil {
		p.echo(item.Echo)
	}

	if len(p.queue) > 0 {
		p.gen++
		gen := p.gen
		p.timer = p.sched.AfterFunc(p.delay, func() { p.tick(gen) })
	}
	return nil
}

func (p *Pacer) tick(gen int) {
	if gen != p.gen {
		return
	}
	p.timer = nil
	if len(p.queue) == 0 {
		return
	}
	if err := p.sendNext(); err != nil {
		p.log.Error().Err(err).Msg("send paced line")
	}
}
