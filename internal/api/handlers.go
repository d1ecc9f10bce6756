package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/susu3304/guildbot/internal/allocator"
	"github.com/susu3304/guildbot/internal/db"
	"github.com/susu3304/guildbot/internal/export"
	"github.com/susu3304/guildbot/internal/split"
	"go.uber.org/zap"
)

func (a *API) handleUserGuilds(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())

	guilds, err := a.getDiscordGuilds(r.Context(), claims.AccessToken)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to get guilds")
		return
	}

	registeredIDs, err := a.store.RegisteredGuildIDs(r.Context())
	if err != nil {
		a.logger.Error("api: failed to get registered guilds", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get registered guilds")
		return
	}

	registered := make(map[int64]bool, len(registeredIDs))
	for _, id := range registeredIDs {
		registered[id] = true
	}

	filtered := []DiscordGuild{}
	for _, guild := range guilds {
		guildID, _ := strconv.ParseInt(guild.ID, 10, 64)
		if registered[guildID] {
			filtered = append(filtered, guild)
		}
	}

	writeJSON(w, http.StatusOK, filtered)
}

// handleOpen opens the caller's workspace if needed and returns it.
func (a *API) handleOpen(w http.ResponseWriter, r *http.Request) {
	guildID, userID := guildFrom(r.Context()), claimsFrom(r.Context()).UserID

	if _, err := a.split.Open(r.Context(), guildID, userID); err != nil {
		a.writeSplitError(w, err)
		return
	}
	sum, err := a.split.Snapshot(guildID, userID, split.ParseOrder(r.URL.Query().Get("order")))
	if err != nil {
		a.writeSplitError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Budget *int64 `json:"budget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Budget == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sum, err := a.split.SetBudget(guildFrom(r.Context()), claimsFrom(r.Context()).UserID, *req.Budget)
	a.writeSummary(w, sum, err)
}

func (a *API) handleDistribute(w http.ResponseWriter, r *http.Request) {
	sum, err := a.split.Distribute(guildFrom(r.Context()), claimsFrom(r.Context()).UserID)
	a.writeSummary(w, sum, err)
}

func (a *API) handleNudge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction int `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	dir := allocator.Direction(req.Direction)
	if dir != allocator.Up && dir != allocator.Down {
		writeError(w, http.StatusBadRequest, "direction must be 1 or -1")
		return
	}

	sum, err := a.split.Nudge(guildFrom(r.Context()), claimsFrom(r.Context()).UserID, mux.Vars(r)["member_id"], dir)
	a.writeSummary(w, sum, err)
}

func (a *API) handleOverride(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Diamonds *int64 `json:"diamonds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Diamonds == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sum, err := a.split.Override(guildFrom(r.Context()), claimsFrom(r.Context()).UserID, mux.Vars(r)["member_id"], *req.Diamonds)
	a.writeSummary(w, sum, err)
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	sum, err := a.split.Reset(guildFrom(r.Context()), claimsFrom(r.Context()).UserID)
	a.writeSummary(w, sum, err)
}

// handleClose discards the caller's workspace without committing it.
func (a *API) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := a.split.Close(guildFrom(r.Context()), claimsFrom(r.Context()).UserID); err != nil {
		a.writeSplitError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleReload(w http.ResponseWriter, r *http.Request) {
	sum, err := a.split.Reload(r.Context(), guildFrom(r.Context()), claimsFrom(r.Context()).UserID)
	a.writeSummary(w, sum, err)
}

func (a *API) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	sum, err := a.split.Snapshot(guildFrom(r.Context()), claimsFrom(r.Context()).UserID, split.ParseOrder(r.URL.Query().Get("order")))
	if err != nil {
		a.writeSplitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(time.Now())+`"`)
	if err := export.WriteCSV(w, sum); err != nil {
		a.logger.Warn("api: csv export interrupted", zap.Error(err))
	}
}

func (a *API) handleCommit(w http.ResponseWriter, r *http.Request) {
	guildID, userID := guildFrom(r.Context()), claimsFrom(r.Context()).UserID

	round, sum, err := a.split.Commit(r.Context(), guildID, userID)
	if err != nil {
		a.writeSplitError(w, err)
		return
	}

	if a.notifier != nil {
		if err := a.notifier.RoundCommitted(r.Context(), round, sum); err != nil {
			// The round is saved either way.
			a.logger.Warn("api: round announcement failed", zap.String("round_id", round.ID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusCreated, round)
}

func (a *API) handleListRounds(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	rounds, err := a.store.ListRounds(r.Context(), guildFrom(r.Context()), limit)
	if err != nil {
		a.logger.Error("api: failed to list rounds", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list rounds")
		return
	}
	if rounds == nil {
		rounds = []db.Round{}
	}
	writeJSON(w, http.StatusOK, rounds)
}

func (a *API) handleRoundEntries(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuid.Parse(mux.Vars(r)["round_id"])
	if err != nil {
		writeError(w, http.StatusNotFound, "round not found")
		return
	}

	entries, err := a.store.RoundEntries(r.Context(), guildFrom(r.Context()), roundID.String())
	if err != nil {
		a.logger.Error("api: failed to get round entries", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get round entries")
		return
	}
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "round not found")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *API) writeSummary(w http.ResponseWriter, sum split.Summary, err error) {
	if err != nil {
		a.writeSplitError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *API) writeSplitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, split.ErrInvalidBudget),
		errors.Is(err, split.ErrOverBudget),
		errors.Is(err, split.ErrNothingToCommit):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, split.ErrUnknownMember),
		errors.Is(err, split.ErrNoSession):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, split.ErrEmptyRoster):
		writeError(w, http.StatusConflict, err.Error())
	default:
		a.logger.Error("api: split operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
