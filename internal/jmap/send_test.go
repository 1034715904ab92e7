package jmap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptSendHappyPath(fb *fakeBackend) {
	fb.on("Mailbox/get", mailboxFixture())
	fb.on("Identity/get", map[string]any{"list": []map[string]any{
		{"id": "id1", "name": "Alice", "email": "alice@example.com"},
	}})
	fb.respond["Email/set"] = func(args map[string]any) (string, any) {
		if _, isCreate := args["create"]; isCreate {
			return "Email/set", map[string]any{
				"created": map[string]any{"draft": map[string]any{"id": "Mdraft"}},
			}
		}
		return "Email/set", map[string]any{
			"updated": map[string]any{"Mdraft": nil},
		}
	}
	fb.on("EmailSubmission/set", map[string]any{
		"created": map[string]any{"submission": map[string]any{"id": "S1"}},
	})
}

func TestSendEmailThreeStepChoreography(t *testing.T) {
	fb := newFakeBackend(t)
	scriptSendHappyPath(fb)
	client := fb.client()

	id, err := client.SendEmail(context.Background(), OutgoingEmail{
		To:      []string{"bob@example.com"},
		CC:      []string{"carol@example.com"},
		Subject: "status",
		Body:    "all green",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mdraft", id)

	sets := fb.callsNamed("Email/set")
	require.Len(t, sets, 2, "send is create-draft then relabel, nothing more")

	create := sets[0].Args["create"].(map[string]any)["draft"].(map[string]any)
	assert.Equal(t, map[string]any{"mb-drafts": true}, create["mailboxIds"])
	assert.Equal(t, "status", create["subject"])
	to := create["to"].([]any)[0].(map[string]any)
	assert.Equal(t, "bob@example.com", to["email"])

	submissions := fb.callsNamed("EmailSubmission/set")
	require.Len(t, submissions, 1)
	sub := submissions[0].Args["create"].(map[string]any)["submission"].(map[string]any)
	assert.Equal(t, "id1", sub["identityId"])
	assert.Equal(t, "Mdraft", sub["emailId"])

	relabel := sets[1].Args["update"].(map[string]any)["Mdraft"].(map[string]any)
	assert.Equal(t, map[string]any{"mb-sent": true}, relabel["mailboxIds"])
}

func TestSendEmailStepFailureAttribution(t *testing.T) {
	tests := []struct {
		name     string
		rescript func(fb *fakeBackend)
		wantMsg  string
	}{
		{
			name: "draft creation fails",
			rescript: func(fb *fakeBackend) {
				fb.on("Email/set", map[string]any{
					"notCreated": map[string]any{
						"draft": map[string]any{"type": "overQuota"},
					},
				})
			},
			wantMsg: "create draft",
		},
		{
			name: "submission fails",
			rescript: func(fb *fakeBackend) {
				fb.on("EmailSubmission/set", map[string]any{
					"notCreated": map[string]any{
						"submission": map[string]any{"type": "forbiddenToSend"},
					},
				})
			},
			wantMsg: "submit email",
		},
		{
			name: "relabel fails",
			rescript: func(fb *fakeBackend) {
				fb.respond["Email/set"] = func(args map[string]any) (string, any) {
					if _, isCreate := args["create"]; isCreate {
						return "Email/set", map[string]any{
							"created": map[string]any{"draft": map[string]any{"id": "Mdraft"}},
						}
					}
					return "Email/set", map[string]any{
						"notUpdated": map[string]any{
							"Mdraft": map[string]any{"type": "notFound"},
						},
					}
				}
			},
			wantMsg: "move to sent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t)
			scriptSendHappyPath(fb)
			tt.rescript(fb)
			client := fb.client()

			_, err := client.SendEmail(context.Background(), OutgoingEmail{
				To:      []string{"bob@example.com"},
				Subject: "s",
				Body:    "b",
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
