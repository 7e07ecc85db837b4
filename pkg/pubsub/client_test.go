package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gigmarket-backend/pkg/config"
)

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	names := subscriptionNames(config.PubSubConfig{
		NotificationSubscription: " notifications-sub ",
		AnalyticsSubscription:    "",
	})
	assert.Equal(t, []string{"notifications-sub"}, names)
}

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "gig-prod"}

	assert.Equal(t, "projects/gig-prod/topics/gigmarket-domain", c.resourceName(kindTopic, "gigmarket-domain"))
	assert.Equal(t, "projects/other/topics/gigmarket-domain", c.resourceName(kindTopic, "projects/other/topics/gigmarket-domain"))
	assert.Equal(t, "", c.resourceName(kindTopic, "  "))

	assert.Equal(t, "projects/gig-prod/subscriptions/ledger-analytics", c.resourceName(kindSubscription, "ledger-analytics"))
	assert.Equal(t, "projects/x/subscriptions/notif", c.resourceName(kindSubscription, "projects/x/subscriptions/notif"))

	assert.Equal(t, "", (&Client{}).resourceName(kindTopic, "orphan"))
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("gigmarket-domain"))
	assert.Nil(t, c.NotificationSubscription())
	assert.Nil(t, c.AnalyticsSubscription())
	assert.NoError(t, c.Close())
	assert.ErrorIs(t, c.Ping(context.Background()), errNotInitialized)
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{DomainTopic: "t"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)

	_, err = NewClient(context.Background(), config.GCPConfig{ProjectID: "gig-prod"}, config.PubSubConfig{}, nil)
	require.ErrorIs(t, err, errDomainTopic)
}
