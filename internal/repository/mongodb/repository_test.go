package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/wacloud/internal/domain/models"
)

func TestStatusFieldsBackfillEarlierStages(t *testing.T) {
	tests := map[models.Status][]string{
		models.StatusSent:      {"sent_at"},
		models.StatusDelivered: {"sent_at", "delivered_at"},
		models.StatusRead:      {"sent_at", "delivered_at", "read_at"},
		models.StatusFailed:    {"failed_at"},
	}
	for status, want := range tests {
		got, err := statusFields(status)
		require.NoError(t, err, status)
		assert.Equal(t, want, got, status)
	}

	_, err := statusFields("bounced")
	require.Error(t, err)
}

func TestFillPipelineKeepsExistingValues(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pipeline := fillPipeline(at, "sent_at", "read_at")

	require.Len(t, pipeline, 1)
	stage := pipeline[0]
	require.Equal(t, "$set", stage[0].Key)

	set := stage[0].Value.(bson.D)
	require.Len(t, set, 3)
	assert.Equal(t, bson.E{Key: "sent_at", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$sent_at", at}}}}, set[0])
	assert.Equal(t, bson.E{Key: "read_at", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$read_at", at}}}}, set[1])
	assert.Equal(t, "updated_at", set[2].Key)

	_, err := bson.Marshal(bson.D{{Key: "pipeline", Value: pipeline}})
	require.NoError(t, err)
}

func TestConversationUpdateOnlySetsPresentFields(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	update := conversationUpdate(models.ConversationUpdate{ConversationID: "conv-1"}, now)
	assert.Equal(t, bson.M{"$set": bson.M{"conversation_id": "conv-1", "updated_at": now}}, update)

	expires := now.Add(24 * time.Hour)
	billable := false
	update = conversationUpdate(models.ConversationUpdate{
		Origin:    models.OriginUserInitiated,
		ExpiresAt: &expires,
		Category:  models.CategoryService,
		Billable:  &billable,
	}, now)
	set := update["$set"].(bson.M)
	assert.Equal(t, models.OriginUserInitiated, set["conversation_origin"])
	assert.Equal(t, expires, set["conversation_expires_at"])
	assert.Equal(t, models.CategoryService, set["category"])
	assert.Equal(t, false, set["billable"])
	assert.NotContains(t, set, "conversation_id")
}

func TestCountPipelineMatchesWindow(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	pipeline := countPipeline(from, to)
	require.Len(t, pipeline, 2)
	assert.Equal(t, "$match", pipeline[0][0].Key)
	assert.Equal(t, "$group", pipeline[1][0].Key)

	group := pipeline[1][0].Value.(bson.D)
	keys := make([]string, 0, len(group))
	for _, e := range group {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"_id", "total", "sent", "delivered", "read", "failed", "approved", "declined", "inbound"}, keys)
}
