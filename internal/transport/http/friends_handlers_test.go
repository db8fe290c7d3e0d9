package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestFriendRequestLifecycle(t *testing.T) {
	env := startTestEnv(t)
	aliceToken, aliceID := env.registerUser(t, "alice")
	bobToken, bobID := env.registerUser(t, "bob")

	// Alice sends bob a request
	resp := env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", bobID), aliceToken, "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created FriendRequestResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if created.User.ID != bobID || created.User.Username != "bob" {
		t.Fatalf("expected bob as target, got %+v", created.User)
	}

	// Sending again conflicts, in either direction
	resp = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", bobID), aliceToken, "")
	if resp.Code != http.StatusConflict {
		t.Errorf("expected status 409 on duplicate request, got %d", resp.Code)
	}
	resp = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", aliceID), bobToken, "")
	if resp.Code != http.StatusConflict {
		t.Errorf("expected status 409 on reverse request, got %d", resp.Code)
	}

	// Self-friending is rejected
	resp = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", aliceID), aliceToken, "")
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 on self request, got %d", resp.Code)
	}

	// Alice sees the request under sent, bob under received
	resp = env.doJSON(t, http.MethodGet, "/api/friends/requests", aliceToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var alicePending PendingRequestsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &alicePending); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(alicePending.Sent) != 1 || alicePending.Sent[0].User.ID != bobID {
		t.Fatalf("expected one sent request to bob, got %+v", alicePending)
	}
	if len(alicePending.Received) != 0 {
		t.Fatalf("expected no received requests for alice, got %+v", alicePending)
	}

	resp = env.doJSON(t, http.MethodGet, "/api/friends/requests", bobToken, "")
	var bobPending PendingRequestsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &bobPending); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(bobPending.Received) != 1 || bobPending.Received[0].User.ID != aliceID {
		t.Fatalf("expected one received request from alice, got %+v", bobPending)
	}

	// The sender cannot accept their own request
	resp = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/friends/requests/%d/accept", bobID), aliceToken, "")
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404 for sender accepting, got %d", resp.Code)
	}

	// An unknown action is rejected
	resp = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/friends/requests/%d/reject", aliceID), bobToken, "")
	if resp.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for unknown action, got %d", resp.Code)
	}

	// Bob accepts
	resp = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/friends/requests/%d/accept", aliceID), bobToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Both sides now list each other as friends, with profiles embedded
	wantUsernames := map[string]string{aliceToken: "bob", bobToken: "alice"}
	for token, want := range wantUsernames {
		resp = env.doJSON(t, http.MethodGet, "/api/friends", token, "")
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.Code)
		}
		var friendsList []FriendResponse
		if err := json.Unmarshal(resp.Body.Bytes(), &friendsList); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if len(friendsList) != 1 || friendsList[0].User.Username != want {
			t.Errorf("expected friend %q, got %+v", want, friendsList)
		}
		if friendsList[0].FriendshipID == 0 || friendsList[0].FriendsSince == "" {
			t.Errorf("expected friendship metadata, got %+v", friendsList[0])
		}
	}
}

func TestDeclineFriendRequest(t *testing.T) {
	env := startTestEnv(t)
	aliceToken, aliceID := env.registerUser(t, "alice")
	bobToken, bobID := env.registerUser(t, "bob")

	resp := env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", bobID), aliceToken, "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/friends/requests/%d/decline", aliceID), bobToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// No friends afterwards
	resp = env.doJSON(t, http.MethodGet, "/api/friends", bobToken, "")
	var friendsList []FriendResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &friendsList); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(friendsList) != 0 {
		t.Errorf("expected no friends, got %d", len(friendsList))
	}

	// Declining again is a 404
	resp = env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/friends/requests/%d/decline", aliceID), bobToken, "")
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.Code)
	}

	// Declining clears the way for a fresh request
	resp = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", bobID), aliceToken, "")
	if resp.Code != http.StatusCreated {
		t.Errorf("expected status 201 after decline, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRemoveFriend(t *testing.T) {
	env := startTestEnv(t)
	aliceToken, aliceID := env.registerUser(t, "alice")
	bobToken, bobID := env.registerUser(t, "bob")

	// Not friends yet
	resp := env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/friends/%d", bobID), aliceToken, "")
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.Code)
	}

	env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", bobID), aliceToken, "")
	env.doJSON(t, http.MethodPut, fmt.Sprintf("/api/friends/requests/%d/accept", aliceID), bobToken, "")

	resp = env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/friends/%d", aliceID), bobToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = env.doJSON(t, http.MethodGet, "/api/friends", aliceToken, "")
	var friendsList []FriendResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &friendsList); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(friendsList) != 0 {
		t.Errorf("expected no friends after removal, got %d", len(friendsList))
	}
}

func TestBlockAndUnblockUser(t *testing.T) {
	env := startTestEnv(t)
	aliceToken, aliceID := env.registerUser(t, "alice")
	bobToken, bobID := env.registerUser(t, "bob")

	resp := env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/blocks/%d", bobID), aliceToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Requests bounce off the block
	resp = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", aliceID), bobToken, "")
	if resp.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for blocked request, got %d", resp.Code)
	}

	// Only the blocker may unblock
	resp = env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/blocks/%d", aliceID), bobToken, "")
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.Code)
	}

	resp = env.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/blocks/%d", bobID), aliceToken, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Requests flow again after unblocking
	resp = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", aliceID), bobToken, "")
	if resp.Code != http.StatusCreated {
		t.Errorf("expected status 201 after unblock, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestGuestsCannotManageFriends(t *testing.T) {
	env := startTestEnv(t)
	_, bobID := env.registerUser(t, "bob")

	guestToken, _, err := env.auth.CreateGuestUser(context.Background())
	if err != nil {
		t.Fatalf("failed to create guest: %v", err)
	}

	resp := env.doJSON(t, http.MethodGet, "/api/friends", guestToken, "")
	if resp.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for guest, got %d", resp.Code)
	}
	resp = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/friends/requests/%d", bobID), guestToken, "")
	if resp.Code != http.StatusForbidden {
		t.Errorf("expected status 403 for guest, got %d", resp.Code)
	}
}
