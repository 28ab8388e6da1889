// Package gochannel provides the in-process watermill pub/sub used when every
// subscriber lives in the same process as the console store.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// outputBuffer bounds the per-subscriber backlog before publishers start waiting.
const outputBuffer = 256

// CreateChannel returns one GoChannel serving as both publisher and subscriber.
// Messages are not persisted: a view that subscribes late only sees later changes.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            outputBuffer,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		logger,
	)

	return pubSub, pubSub, nil
}
