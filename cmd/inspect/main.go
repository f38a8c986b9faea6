package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"thunderwatch/internal/config"
	"thunderwatch/internal/decision"
	"thunderwatch/internal/gametime"
	"thunderwatch/internal/levelsave"
	"thunderwatch/internal/persistence/indexdb"
	"thunderwatch/internal/worlds"
)

func main() {
	var (
		levelPath  = flag.String("level", "", "level.dat, a world directory, or a saves directory (newest world is used)")
		configPath = flag.String("config", "", "config.yaml for thresholds (optional)")
		dbPath     = flag.String("db", "", "evaluation index to list (optional)")
		limit      = flag.Int("limit", 20, "rows to list from -db")
	)
	flag.Parse()

	if *levelPath == "" && *dbPath == "" {
		fmt.Fprintln(os.Stderr, "missing -level or -db")
		os.Exit(2)
	}

	if *levelPath != "" {
		if err := inspectLevel(*levelPath, *configPath); err != nil {
			fmt.Fprintln(os.Stderr, "inspect:", err)
			os.Exit(1)
		}
	}
	if *dbPath != "" {
		if err := listHistory(*dbPath, *limit); err != nil {
			fmt.Fprintln(os.Stderr, "history:", err)
			os.Exit(1)
		}
	}
}

// resolveLevel accepts a save file, a world directory, or a saves directory.
func resolveLevel(p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return p, nil
	}
	direct := filepath.Join(p, levelsave.FileName)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}
	world, err := worlds.SelectActive(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(world, levelsave.FileName), nil
}

func inspectLevel(p, configPath string) error {
	path, err := resolveLevel(p)
	if err != nil {
		return err
	}
	t, err := levelsave.ReadFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s rain=%d (%s) thunder=%d (%s) extra_fields=%d\n",
		path, t.RainStartTick, gametime.FormatTicks(t.RainStartTick),
		t.ThunderStartTick, gametime.FormatTicks(t.ThunderStartTick), len(t.Extra))

	if configPath == "" {
		return nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	out, _ := decision.Evaluate(t, filepath.Dir(path), cfg.Thresholds(), decision.State{Armed: true})
	switch {
	case !out.Judged:
		fmt.Println("verdict: not judged (cycles not initialised)")
	case out.Decision == decision.Reset:
		fmt.Printf("verdict: reset (%s)\n", out.ReasonString())
	default:
		fmt.Println("verdict: keep")
	}
	return nil
}

func listHistory(path string, limit int) error {
	db, err := indexdb.OpenReadOnly(path)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := indexdb.Recent(context.Background(), db, limit)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Printf("%s %-9s rain=%s thunder=%s %s %s\n",
			r.RecordedAt, r.Decision,
			gametime.FormatTicks(r.RainTick), gametime.FormatTicks(r.ThunderTick),
			filepath.Base(r.World), strings.Join(r.Reasons, ","))
	}
	return nil
}
