package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
)

const (
	clickPartitions = 3
	// -1 lets the broker apply its default replication factor.
	defaultReplication int16 = -1
)

// TopicAdmin is the part of [kadm.Client] used to bootstrap topics.
type TopicAdmin interface {
	CreateTopic(ctx context.Context, partitions int32, replicationFactor int16,
		configs map[string]*string, topic string) (kadm.CreateTopicResponse, error)
}

// EnsureClickTopic creates the clicks topic unless it already exists.
// It reports whether the topic was created.
func EnsureClickTopic(ctx context.Context, adm TopicAdmin, topic string) (bool, error) {
	cleanup := "delete"
	retention := "2592000000" // 30 days

	res, err := adm.CreateTopic(ctx, clickPartitions, defaultReplication, map[string]*string{
		"cleanup.policy": &cleanup,
		"retention.ms":   &retention,
	}, topic)
	if err == nil {
		err = res.Err
	}
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, kerr.TopicAlreadyExists):
		return false, nil
	default:
		return false, fmt.Errorf("events.EnsureClickTopic %q: %w", topic, err)
	}
}
