package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show your tower: level, XP, streak, and tier",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

type playerView struct {
	Level            int      `json:"level"`
	CurrentXP        int      `json:"current_xp"`
	XPToNextLevel    int      `json:"xp_to_next_level"`
	Streak           int      `json:"streak"`
	TotalXPLost      int      `json:"total_xp_lost"`
	IsLevelCapped    bool     `json:"is_level_capped"`
	BossXPEarned     int      `json:"boss_xp_earned"`
	BossNumber       int      `json:"boss_number"`
	BossXPRequired   int      `json:"boss_xp_required"`
	HighestLevel     int      `json:"highest_level"`
	Tier             string   `json:"tier"`
	UnlockedTiers    []string `json:"unlocked_tiers"`
	ActiveTowerTheme string   `json:"active_tower_theme"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	var p playerView
	if err := c.do("GET", "/api/player", nil, &p); err != nil {
		return err
	}

	fmt.Printf("Level %d — %s tier (%s theme)\n", p.Level, p.Tier, p.ActiveTowerTheme)
	if p.IsLevelCapped {
		fmt.Printf("BOSS GATE: boss %d blocks your ascent. Gate XP: %d / %d\n",
			p.BossNumber, p.BossXPEarned, p.BossXPRequired)
	} else {
		fmt.Printf("XP: %d / %d %s\n", p.CurrentXP, p.XPToNextLevel, xpBar(p.CurrentXP, p.XPToNextLevel))
	}
	fmt.Printf("Streak: %d day(s)   Highest level: %d   XP lost to decay: %d\n",
		p.Streak, p.HighestLevel, p.TotalXPLost)
	fmt.Printf("Unlocked tiers: %s\n", strings.Join(p.UnlockedTiers, ", "))
	return nil
}

func xpBar(current, max int) string {
	const width = 20
	if max <= 0 {
		return ""
	}
	filled := current * width / max
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}
