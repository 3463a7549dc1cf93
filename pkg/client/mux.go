package client

import (
	"context"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
)

type ConsumerProvider func() []common.RecieverChan

type BroadcastedMessage struct {
	Text       string `json:"text"`
	ProducerID string `json:"producer_id"`
}

// Broadcast fans every update out to the consumers known at that moment.
// Consumers that are not ready miss the update. Returns once the producer
// is closed or ctx is done, intended to be run in a separate goroutine
func Broadcast(
	ctx context.Context,
	producerID string,
	producer <-chan []byte,
	provider ConsumerProvider,
) {
	for {
		select {
		case update, open := <-producer:
			if !open {
				return
			}
			emission := BroadcastedMessage{
				Text:       string(update),
				ProducerID: producerID,
			}
			for _, target := range provider() {
				select {
				case target <- emission:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
