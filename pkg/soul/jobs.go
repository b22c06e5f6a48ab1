package soul

import (
	"context"

	"github.com/soulmesh/soulmem-go/pkg/core"
	"github.com/soulmesh/soulmem-go/pkg/stores"
	"github.com/soulmesh/soulmem-go/pkg/writebehind"
)

// relationshipJob carries one pending relationship-document write. The client
// mutates the cached document in place before enqueueing, so each snapshot
// already includes every earlier mutation and merge is latest-snapshot-wins.
type relationshipJob struct {
	userID string
	doc    *core.UserRelationship
}

func (j relationshipJob) Key() string {
	return "relationship:" + j.userID
}

func (j relationshipJob) Merge(incoming relationshipJob) relationshipJob {
	return incoming
}

// profileJob carries one pending profile write, latest-wins.
type profileJob struct {
	userID  string
	profile *core.UserProfile
}

func (j profileJob) Key() string {
	return "profile:" + j.userID
}

func (j profileJob) Merge(incoming profileJob) profileJob {
	return incoming
}

// Write-behind sizing. The queues bound distinct dirty keys, not writes.
const (
	relationshipQueueSize = 5000
	profileQueueSize      = 1000
)

func newRelationshipWorker(docs stores.DocumentStore) (*writebehind.Queue[relationshipJob], *writebehind.Worker[relationshipJob]) {
	queue := writebehind.NewQueue[relationshipJob]("affinity", relationshipQueueSize)
	worker := writebehind.NewWorker("affinity", queue, func(ctx context.Context, job relationshipJob) error {
		return docs.PutRelationship(ctx, job.doc)
	})
	return queue, worker
}

func newProfileWorker(docs stores.DocumentStore) (*writebehind.Queue[profileJob], *writebehind.Worker[profileJob]) {
	queue := writebehind.NewQueue[profileJob]("profile", profileQueueSize)
	worker := writebehind.NewWorker("profile", queue, func(ctx context.Context, job profileJob) error {
		return docs.PutProfile(ctx, job.profile)
	})
	return queue, worker
}
