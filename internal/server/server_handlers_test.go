package server

import (
	"net/http"
	"strings"
	"testing"
)

func TestFullGameOverHTTP(t *testing.T) {
	env := newTestEnv(t, testConfig())
	host, alice, bob := tokenFor(t, "host"), tokenFor(t, "alice"), tokenFor(t, "bob")

	roomID, code, hostPlayer := createRoom(t, env.ts, host, map[string]any{"total_rounds": 1, "is_public": true})

	public := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/rooms", "", nil), http.StatusOK)
	rooms, _ := public["rooms"].([]any)
	if len(rooms) != 1 || rooms[0].(map[string]any)["id"] != roomID {
		t.Fatalf("expected room in public list, got %#v", public["rooms"])
	}
	summary := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/codes/"+code, "", nil), http.StatusOK)
	if summary["room"].(map[string]any)["code"] != code {
		t.Fatalf("expected lookup by code to find the room, got %#v", summary)
	}
	expectError(t, doRequest(t, env.ts, http.MethodGet, "/api/codes/"+strings.ToLower(code), "", nil), http.StatusNotFound, "room_not_found")

	alicePlayer := joinRoom(t, env.ts, alice, code)
	joinRoom(t, env.ts, bob, code)

	expectError(t, doRequest(t, env.ts, http.MethodPost, "/api/rooms/"+roomID+"/start", alice, nil), http.StatusForbidden, "not_host")
	start := expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/rooms/"+roomID+"/start", host, nil), http.StatusOK)
	roundID := assertString(t, start, "round_id")

	round := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/rounds/"+roundID, host, nil), http.StatusOK)
	if round["state"] != "prompting" || round["is_card_czar"] != true {
		t.Fatalf("expected host to be czar of a prompting round, got %#v", round)
	}
	if round["card_czar"].(map[string]any)["id"] != hostPlayer {
		t.Fatalf("expected host as first czar, got %#v", round["card_czar"])
	}

	promptPath := "/api/rounds/" + roundID + "/prompts"
	expectError(t, doRequest(t, env.ts, http.MethodPost, promptPath, host, map[string]string{"text": "a cat"}), http.StatusConflict, "card_czar_cannot_prompt")
	expectError(t, doRequest(t, env.ts, http.MethodPost, promptPath, alice, map[string]string{"text": "   "}), http.StatusBadRequest, "invalid_length")

	first := expectStatus(t, doRequest(t, env.ts, http.MethodPost, promptPath, alice, map[string]string{"text": "a cat in a hat"}), http.StatusCreated)
	if first["all_submitted"] != false {
		t.Fatalf("expected round to wait for bob, got %#v", first)
	}
	alicePrompt := assertString(t, first, "prompt_id")
	expectError(t, doRequest(t, env.ts, http.MethodPost, promptPath, alice, map[string]string{"text": "again"}), http.StatusConflict, "duplicate_submission")

	second := expectStatus(t, doRequest(t, env.ts, http.MethodPost, promptPath, bob, map[string]string{"text": "a dog on a skateboard"}), http.StatusCreated)
	if second["all_submitted"] != true {
		t.Fatalf("expected all prompts submitted, got %#v", second)
	}
	env.svc.Wait()

	round = expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/rounds/"+roundID, alice, nil), http.StatusOK)
	if round["state"] != "voting" {
		t.Fatalf("expected voting after generation, got %v", round["state"])
	}
	images := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/rounds/"+roundID+"/images", host, nil), http.StatusOK)
	if list, _ := images["images"].([]any); len(list) != 2 {
		t.Fatalf("expected 2 images, got %#v", images["images"])
	}

	regenPath := "/api/rounds/" + roundID + "/prompts/" + alicePrompt + "/regenerate"
	expectError(t, doRequest(t, env.ts, http.MethodPost, regenPath, bob, nil), http.StatusForbidden, "not_owner")
	regen := expectStatus(t, doRequest(t, env.ts, http.MethodPost, regenPath, alice, nil), http.StatusOK)
	if regen["regeneration_number"] != float64(1) {
		t.Fatalf("expected first regeneration, got %#v", regen)
	}

	votePath := "/api/rounds/" + roundID + "/vote"
	expectError(t, doRequest(t, env.ts, http.MethodPost, votePath, alice, map[string]string{"winner_id": alicePlayer}), http.StatusForbidden, "not_card_czar")
	missing := expectStatus(t, doRequest(t, env.ts, http.MethodPost, votePath, host, map[string]string{}), http.StatusBadRequest)
	if missing["error"] != "winner_id is required" {
		t.Fatalf("unexpected bind message: %#v", missing)
	}
	vote := expectStatus(t, doRequest(t, env.ts, http.MethodPost, votePath, host, map[string]string{"winner_id": alicePlayer}), http.StatusOK)
	if vote["game_over"] != true || vote["next_round"] != nil {
		t.Fatalf("expected game over after the only round, got %#v", vote)
	}

	state := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/rooms/"+roomID, bob, nil), http.StatusOK)
	if state["room"].(map[string]any)["state"] != "gameOver" {
		t.Fatalf("expected gameOver room, got %#v", state["room"])
	}
	for _, p := range state["players"].([]any) {
		player := p.(map[string]any)
		if player["id"] == alicePlayer && player["score"] != float64(1) {
			t.Fatalf("expected alice to score, got %#v", player)
		}
	}

	stats := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/rooms/"+roomID+"/stats", bob, nil), http.StatusOK)
	if stats["total_players"] != float64(3) || stats["total_rounds"] != float64(1) || stats["total_regenerations"] != float64(1) {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	events := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/rooms/"+roomID+"/events", host, nil), http.StatusOK)
	list, _ := events["events"].([]any)
	if len(list) == 0 || list[len(list)-1].(map[string]any)["type"] != "game_over" {
		t.Fatalf("expected game_over as the last event, got %#v", events["events"])
	}
}

func TestCreateRoomValidation(t *testing.T) {
	env := newTestEnv(t, testConfig())
	host := tokenFor(t, "host")

	expectError(t, doRequest(t, env.ts, http.MethodPost, "/api/rooms", host, map[string]any{"max_players": 50}), http.StatusBadRequest, "invalid_settings")
	expectError(t, doRequest(t, env.ts, http.MethodPost, "/api/rooms", host, map[string]any{"max_players": "many"}), http.StatusBadRequest, "invalid_request")
}

func TestJoinRoomErrors(t *testing.T) {
	env := newTestEnv(t, testConfig())
	host, guest := tokenFor(t, "host"), tokenFor(t, "guest")
	_, code, _ := createRoom(t, env.ts, host, nil)

	cases := []struct {
		name    string
		payload map[string]string
		status  int
		code    string
		message string
	}{
		{name: "missing code", payload: map[string]string{}, status: http.StatusBadRequest, message: "room code is required"},
		{name: "malformed code", payload: map[string]string{"code": "AB1"}, status: http.StatusBadRequest, message: "room code must be 6 uppercase letters"},
		{name: "lowercase code", payload: map[string]string{"code": strings.ToLower(code)}, status: http.StatusBadRequest, message: "room code must be 6 uppercase letters"},
		{name: "long nickname", payload: map[string]string{"code": code, "nickname": strings.Repeat("n", 33)}, status: http.StatusBadRequest, code: "invalid_length"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/join", guest, tc.payload), tc.status)
			if tc.code != "" && body["code"] != tc.code {
				t.Fatalf("expected code %q, got %#v", tc.code, body)
			}
			if tc.message != "" && body["error"] != tc.message {
				t.Fatalf("expected message %q, got %#v", tc.message, body)
			}
		})
	}

	first := expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/join", guest, map[string]string{"code": " " + code + " "}), http.StatusOK)
	again := expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/join", guest, map[string]string{"code": code}), http.StatusOK)
	if again["player_id"] != first["player_id"] || again["rejoined"] != true {
		t.Fatalf("expected rejoin to reuse the player, got %#v then %#v", first, again)
	}
}

func TestRoomByCodeNotFound(t *testing.T) {
	env := newTestEnv(t, testConfig())
	expectError(t, doRequest(t, env.ts, http.MethodGet, "/api/codes/12", "", nil), http.StatusNotFound, "room_not_found")
}

func TestStartGameNeedsPlayers(t *testing.T) {
	env := newTestEnv(t, testConfig())
	host := tokenFor(t, "host")
	roomID, code, _ := createRoom(t, env.ts, host, nil)
	joinRoom(t, env.ts, tokenFor(t, "alice"), code)

	expectError(t, doRequest(t, env.ts, http.MethodPost, "/api/rooms/"+roomID+"/start", host, nil), http.StatusUnprocessableEntity, "insufficient_players")
}

func TestHostLeavingWaitingRoomDeletesIt(t *testing.T) {
	env := newTestEnv(t, testConfig())
	host := tokenFor(t, "host")
	roomID, code, _ := createRoom(t, env.ts, host, nil)

	body := expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/rooms/"+roomID+"/leave", host, nil), http.StatusOK)
	if body["room_deleted"] != true {
		t.Fatalf("expected room deletion, got %#v", body)
	}
	expectError(t, doRequest(t, env.ts, http.MethodGet, "/api/codes/"+code, "", nil), http.StatusNotFound, "room_not_found")
}

func TestAdvanceRoundHostOnly(t *testing.T) {
	env := newTestEnv(t, testConfig())
	host, alice := tokenFor(t, "host"), tokenFor(t, "alice")
	roomID, code, _ := createRoom(t, env.ts, host, nil)
	joinRoom(t, env.ts, alice, code)
	joinRoom(t, env.ts, tokenFor(t, "bob"), code)
	start := expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/rooms/"+roomID+"/start", host, nil), http.StatusOK)
	roundID := assertString(t, start, "round_id")

	expectError(t, doRequest(t, env.ts, http.MethodPost, "/api/rounds/"+roundID+"/advance", alice, nil), http.StatusForbidden, "not_host")
	expectError(t, doRequest(t, env.ts, http.MethodPost, "/api/rounds/"+roundID+"/close", alice, nil), http.StatusConflict, "wrong_phase")

	body := expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/rounds/"+roundID+"/advance", host, nil), http.StatusOK)
	if body["state"] != "generating" {
		t.Fatalf("expected generating after advance, got %#v", body)
	}
	env.svc.Wait()
}

func TestCardEndpoints(t *testing.T) {
	env := newTestEnv(t, testConfig())
	admin, player := tokenFor(t, "admin"), tokenFor(t, "player")

	expectError(t, doRequest(t, env.ts, http.MethodGet, "/api/cards", player, nil), http.StatusForbidden, "not_admin")
	expectError(t, doRequest(t, env.ts, http.MethodPost, "/api/cards", player, map[string]string{"text": "Nope"}), http.StatusForbidden, "not_admin")

	sample := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/cards/sample?n=3", player, nil), http.StatusOK)
	if list, _ := sample["cards"].([]any); len(list) != 3 {
		t.Fatalf("expected 3 sampled cards, got %#v", sample["cards"])
	}
	bad := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/cards/sample?n=500", player, nil), http.StatusBadRequest)
	if bad["error"] != "n must be between 1 and 50" {
		t.Fatalf("unexpected bind message: %#v", bad)
	}

	invalid := expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/cards", admin, map[string]string{"text": "Draw a moon", "difficulty": "brutal"}), http.StatusBadRequest)
	if invalid["error"] != "difficulty must be easy, medium or hard" {
		t.Fatalf("unexpected bind message: %#v", invalid)
	}
	card := expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/cards", admin, map[string]string{"text": "Draw a moon", "difficulty": "Hard"}), http.StatusCreated)
	if card["difficulty"] != "hard" || card["category"] != "custom" || card["is_active"] != true {
		t.Fatalf("unexpected card: %#v", card)
	}
	cardID := assertString(t, card, "id")

	toggled := expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/cards/"+cardID+"/toggle", admin, map[string]bool{"active": false}), http.StatusOK)
	if toggled["is_active"] != false {
		t.Fatalf("expected card deactivated, got %#v", toggled)
	}
	expectError(t, doRequest(t, env.ts, http.MethodPost, "/api/cards/missing/toggle", admin, map[string]bool{"active": true}), http.StatusNotFound, "card_not_found")
	expectStatus(t, doRequest(t, env.ts, http.MethodPost, "/api/cards/"+cardID+"/toggle", admin, map[string]any{}), http.StatusBadRequest)

	stats := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/cards/stats", admin, nil), http.StatusOK)
	total, _ := stats["total"].(float64)
	active, _ := stats["active"].(float64)
	if total != active+1 {
		t.Fatalf("expected exactly one inactive card, got total=%v active=%v", total, active)
	}

	listed := expectStatus(t, doRequest(t, env.ts, http.MethodGet, "/api/cards", admin, nil), http.StatusOK)
	if list, _ := listed["cards"].([]any); len(list) != int(total) {
		t.Fatalf("expected %v cards, got %d", total, len(list))
	}
}
