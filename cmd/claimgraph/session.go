// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/claimgraph/internal/forcing"
	"github.com/pdiddy/claimgraph/internal/mapping"
	"github.com/pdiddy/claimgraph/internal/session"
	"github.com/pdiddy/claimgraph/internal/traversal"
	"github.com/pdiddy/claimgraph/pkg/types"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run a persistent traversal over a claim graph",
	Long: `Session keeps traversals in a local SQLite database. Each mapping round
is a turn; decisions made on a turn are saved with it. Advancing a session
with a new response starts a new turn with a fresh traversal.`,
}

// --- start / advance ---

var sessionStartCmd = &cobra.Command{
	Use:   "start <file>",
	Short: "Start a session from a model response or graph file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionStart,
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[0])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Start(context.Background(), doc.Graph, doc.Narrative, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Started session %s\n\n", snap.SessionID)
	printSnapshot(os.Stdout, snap)
	return nil
}

var sessionAdvanceCmd = &cobra.Command{
	Use:   "advance <session-id> <file>",
	Short: "Record a new mapping round as the next turn",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionAdvance,
}

func runSessionAdvance(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(args[1])
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Advance(context.Background(), args[0], doc.Graph, doc.Narrative)
	if err != nil {
		return err
	}
	printSnapshot(os.Stdout, snap)
	return nil
}

// --- show ---

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show live forcing points, favored claims, and the decision path",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

// snapshotView is the JSON form of session show.
type snapshotView struct {
	SessionID  string                 `json:"session_id"`
	Turn       int                    `json:"turn"`
	Generation string                 `json:"generation"`
	Complete   bool                   `json:"complete"`
	Live       []mapping.PointSummary `json:"live"`
	Favored    []string               `json:"favored"`
	Blocked    []string               `json:"blocked"`
	State      types.SerializedState  `json:"state"`
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	turn, _ := cmd.Flags().GetInt("turn")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Load(context.Background(), args[0], turn)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(newSnapshotView(snap))
	}
	printSnapshot(os.Stdout, snap)
	return nil
}

func newSnapshotView(snap *session.Snapshot) snapshotView {
	v := snapshotView{
		SessionID:  snap.SessionID,
		Turn:       snap.Turn,
		Generation: snap.Generation,
		Complete:   traversal.IsComplete(snap.Points, snap.State),
		Live:       mapping.Summarize(traversal.LiveForcingPoints(snap.Points, snap.State)),
		Favored:    []string{},
		Blocked:    traversal.BlockedClaims(snap.Points, snap.State),
		State:      traversal.Serialize(snap.State),
	}
	for _, c := range traversal.FavoredClaims(snap.Graph.Claims, snap.Points, snap.State) {
		v.Favored = append(v.Favored, c.ID)
	}
	if v.Blocked == nil {
		v.Blocked = []string{}
	}
	return v
}

func printSnapshot(w io.Writer, snap *session.Snapshot) {
	gen := snap.Generation
	if len(gen) > 12 {
		gen = gen[:12]
	}
	fmt.Fprintf(w, "Session %s, turn %d (graph %s)\n", snap.SessionID, snap.Turn, gen)

	if path := traversal.PathSummary(snap.State); path != "" {
		fmt.Fprintf(w, "\nDecisions:\n%s\n", path)
	}

	live := traversal.LiveForcingPoints(snap.Points, snap.State)
	if len(live) > 0 {
		fmt.Fprintln(w, "\nOpen questions:")
		for _, fp := range live {
			switch p := fp.(type) {
			case types.ConditionalPoint:
				fmt.Fprintf(w, "  %s  %s (yes/no; no prunes %s)\n",
					p.ID, p.Pruner.Question, strings.Join(p.Pruner.AffectedClaims, ", "))
			case types.ConflictPoint:
				question := "Which do you prefer?"
				if p.Question != nil {
					question = *p.Question
				}
				fmt.Fprintf(w, "  %s  %s\n      %s: %s\n      %s: %s\n", p.ID, question,
					p.Options[0].ClaimID, p.Options[0].Label, p.Options[1].ClaimID, p.Options[1].Label)
			}
		}
	}

	blocked := make(map[string]bool)
	for _, id := range traversal.BlockedClaims(snap.Points, snap.State) {
		blocked[id] = true
	}

	fmt.Fprintln(w, "\nFavored claims:")
	favored := traversal.FavoredClaims(snap.Graph.Claims, snap.Points, snap.State)
	if len(favored) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, c := range favored {
		mark := ""
		if blocked[c.ID] {
			mark = "  [pending a condition]"
		}
		fmt.Fprintf(w, "  %-6s %s%s\n", c.ID, c.Label, mark)
	}

	if traversal.IsComplete(snap.Points, snap.State) {
		fmt.Fprintln(w, "\nTraversal complete.")
	} else {
		fmt.Fprintf(w, "\n%d open question(s) remain.\n", len(live))
	}
}

// --- gate / choose ---

var sessionGateCmd = &cobra.Command{
	Use:   "gate <session-id> <forcing-point-id>",
	Short: "Answer a yes/no condition; no prunes its claims",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionGate,
}

func runSessionGate(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	input, _ := cmd.Flags().GetString("input")
	turn, _ := cmd.Flags().GetInt("turn")

	var userInput *string
	if strings.TrimSpace(input) != "" {
		userInput = types.StringPtr(input)
	}

	return decide(args[0], turn, args[1], func(snap *session.Snapshot, fp types.ForcingPoint) (types.TraversalState, error) {
		if _, ok := fp.(types.ConditionalPoint); !ok {
			return types.TraversalState{}, fmt.Errorf("%s is a conflict; use session choose", fp.PointID())
		}
		return traversal.ResolveConditional(snap.State, snap.Points, fp.PointID(), yes, userInput), nil
	})
}

var sessionChooseCmd = &cobra.Command{
	Use:   "choose <session-id> <forcing-point-id> <claim-id>",
	Short: "Pick one side of a conflict",
	Args:  cobra.ExactArgs(3),
	RunE:  runSessionChoose,
}

func runSessionChoose(cmd *cobra.Command, args []string) error {
	label, _ := cmd.Flags().GetString("label")
	turn, _ := cmd.Flags().GetInt("turn")
	claimID := args[2]

	return decide(args[0], turn, args[1], func(snap *session.Snapshot, fp types.ForcingPoint) (types.TraversalState, error) {
		conflict, ok := fp.(types.ConflictPoint)
		if !ok {
			return types.TraversalState{}, fmt.Errorf("%s is a condition; use session gate", fp.PointID())
		}
		if _, ok := conflict.Option(claimID); !ok {
			return types.TraversalState{}, fmt.Errorf("%s is not an option of %s (options: %s, %s)",
				claimID, conflict.ID, conflict.Options[0].ClaimID, conflict.Options[1].ClaimID)
		}
		return traversal.ResolveConflict(snap.State, snap.Points, conflict.ID, claimID, label), nil
	})
}

// decide loads a turn, applies one reducer, saves the result, and prints
// the updated snapshot.
func decide(sessionID string, turn int, fpID string, apply func(*session.Snapshot, types.ForcingPoint) (types.TraversalState, error)) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	snap, err := store.Load(ctx, sessionID, turn)
	if err != nil {
		return err
	}

	fp, ok := forcing.Find(snap.Points, fpID)
	if !ok {
		return fmt.Errorf("unknown forcing point %q", fpID)
	}
	if traversal.IsMoot(fp, snap.State) {
		fmt.Fprintf(os.Stderr, "note: %s no longer matters; recording the answer anyway\n", fpID)
	}

	state, err := apply(snap, fp)
	if err != nil {
		return err
	}
	if err := store.SaveState(ctx, snap.SessionID, snap.Turn, snap.Generation, state); err != nil {
		return err
	}

	snap.State = state
	printSnapshot(os.Stdout, snap)
	return nil
}

// --- list / export ---

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, most recently updated first",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

func runSessionList(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.List(context.Background(), session.ListOptions{Source: source, MaxResults: limit})
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-5s  %-20s  %s\n", "ID", "Turns", "Updated", "Source")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, s := range sessions {
		fmt.Fprintf(os.Stdout, "%-36s  %-5d  %-20s  %s\n",
			s.ID, s.Turns, s.UpdatedAt.Format("2006-01-02 15:04:05"), s.Source)
	}
	fmt.Fprintf(os.Stdout, "\n%d sessions\n", len(sessions))
	return nil
}

var sessionExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the latest turn of every session to YAML or JSON",
	Args:  cobra.NoArgs,
	RunE:  runSessionExport,
}

func runSessionExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(context.Background())
	case "json":
		path, err = store.ExportJSON(context.Background())
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

// --- shared helpers ---

func openStore() (*session.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return session.NewStore(cfg.Session)
}

func init() {
	sessionCmd.PersistentFlags().String("dir", "", "session database directory (default from config: sessions)")
	viper.BindPFlag("session.dir", sessionCmd.PersistentFlags().Lookup("dir"))

	sessionShowCmd.Flags().Int("turn", 0, "turn to show (default latest)")
	sessionShowCmd.Flags().Bool("json", false, "print the snapshot as JSON")

	sessionGateCmd.Flags().Bool("yes", false, "the condition holds")
	sessionGateCmd.Flags().Bool("no", false, "the condition does not hold; prune its claims")
	sessionGateCmd.Flags().String("input", "", "free-text context recorded with the answer")
	sessionGateCmd.Flags().Int("turn", 0, "turn to answer on (default latest)")
	sessionGateCmd.MarkFlagsMutuallyExclusive("yes", "no")
	sessionGateCmd.MarkFlagsOneRequired("yes", "no")

	sessionChooseCmd.Flags().String("label", "", "label recorded for the chosen claim (default its own label)")
	sessionChooseCmd.Flags().Int("turn", 0, "turn to answer on (default latest)")

	sessionListCmd.Flags().String("source", "", "only sessions whose source contains this text")
	sessionListCmd.Flags().Int("limit", 0, "maximum sessions to list (default from config)")

	sessionExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	sessionCmd.AddCommand(sessionStartCmd, sessionAdvanceCmd, sessionShowCmd,
		sessionGateCmd, sessionChooseCmd, sessionListCmd, sessionExportCmd)
	rootCmd.AddCommand(sessionCmd)
}
