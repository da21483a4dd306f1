package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookrank/internal/database/leaderboard"
)

// LeaderboardStore defines the aggregate read operations for the summary page.
type LeaderboardStore interface {
	GetLeaderboard() ([]leaderboard.Row, error)
	GetTotals() (leaderboard.Totals, error)
}

// LeaderboardController serves the cross-user book ranking.
type LeaderboardController struct {
	store LeaderboardStore
}

// NewLeaderboardController creates a new leaderboard controller.
func NewLeaderboardController(store LeaderboardStore) *LeaderboardController {
	return &LeaderboardController{store: store}
}

// Summary returns all listed books ordered by ascending score, plus totals.
// GET /api/summary
func (sc *LeaderboardController) Summary(c *gin.Context) {
	rows, err := sc.store.GetLeaderboard()
	if err != nil {
		respondInternalError(c, err, "load leaderboard")
		return
	}
	totals, err := sc.store.GetTotals()
	if err != nil {
		respondInternalError(c, err, "load totals")
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": rows, "totals": totals})
}
