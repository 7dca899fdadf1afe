package jobs

import (
	"log"
	"time"

	"github.com/driftchat/chat_backend/services"
)

const presenceMaxIdle = 10 * time.Minute

// SweepStalePresence clears is_active/is_typing on profiles that went
// quiet, so contact lists do not show ghosts forever.
func SweepStalePresence() {
	log.Println("Running job: SweepStalePresence...")

	cleared, err := services.SweepStalePresence(presenceMaxIdle)
	if err != nil {
		log.Printf("Error sweeping stale presence: %v", err)
		return
	}

	if cleared > 0 {
		log.Printf("Presence sweep cleared %d stale profile(s)", cleared)
	}
}
