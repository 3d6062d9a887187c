//go:build gcloud

package push

import "testing"

func TestTaskIDIsStable(t *testing.T) {
	a := taskID("srv-1", "token-a")
	if a != taskID("srv-1", "token-a") {
		t.Error("expected identical ids for identical input")
	}
	if a == taskID("srv-1", "token-b") {
		t.Error("expected distinct ids per token")
	}
	if a == taskID("srv-2", "token-a") {
		t.Error("expected distinct ids per handle")
	}
}
