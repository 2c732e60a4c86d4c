package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ravenswood/towncrier/internal/settings"
	"github.com/ravenswood/towncrier/internal/town"
)

// seatView is one seated player in a town view.
type seatView struct {
	Seat      int    `json:"seat"`
	MemberID  string `json:"member_id"`
	Dead      bool   `json:"dead"`
	Votes     *int   `json:"votes,omitempty"`
	Traveling bool   `json:"traveling"`
}

// townView is the JSON shape of one live town.
type townView struct {
	VenueID       string     `json:"venue_id"`
	GuildID       string     `json:"guild_id"`
	Locked        bool       `json:"locked"`
	Players       int        `json:"players"`
	Seats         []seatView `json:"seats"`
	Travelers     []string   `json:"travelers"`
	Storytellers  []string   `json:"storytellers"`
	HasNomination bool       `json:"has_nomination"`
	LastActivity  time.Time  `json:"last_activity"`
}

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, towns *town.Registry, store *settings.Store) {
	router.GET("/healthz", handleHealth())
	router.GET("/api/towns", handleTownList(towns))
	router.GET("/api/towns/:id", handleTownDetail(towns))
	if store != nil {
		router.GET("/api/towns/:id/settings", handleTownSettings(store))
	}
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleTownList(towns *town.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		live := towns.Towns()
		views := make([]townView, 0, len(live))
		for _, t := range live {
			views = append(views, viewOf(t.Snapshot()))
		}
		c.JSON(http.StatusOK, gin.H{"towns": views})
	}
}

func handleTownDetail(towns *town.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		for _, t := range towns.Towns() {
			if t.VenueID == id {
				c.JSON(http.StatusOK, viewOf(t.Snapshot()))
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "no live town for venue"})
	}
}

func handleTownSettings(store *settings.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		values, err := store.All(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"settings": values})
	}
}

// viewOf flattens a state snapshot into the wire shape, in seat order.
func viewOf(st town.State) townView {
	view := townView{
		VenueID:       st.VenueID,
		GuildID:       st.GuildID,
		Locked:        st.Locked,
		Players:       len(st.Order),
		Seats:         make([]seatView, 0, len(st.Order)),
		Travelers:     st.Travelers,
		Storytellers:  st.Storytellers,
		HasNomination: st.HasNomination,
		LastActivity:  st.LastActivity,
	}
	for i, id := range st.Order {
		info := st.Info[id]
		view.Seats = append(view.Seats, seatView{
			Seat:      i + 1,
			MemberID:  id,
			Dead:      info.Dead,
			Votes:     info.Votes,
			Traveling: info.Traveling,
		})
	}
	return view
}
