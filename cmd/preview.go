package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizstreak/internal/delivery"
	"github.com/abhisek/quizstreak/internal/synth"
)

var previewCmd = &cobra.Command{
	Use:   "preview <problem>",
	Short: "Generate questions for a problem without storing or delivering them",
	Long: `Generate and interactively answer questions for one problem.

Nothing is written to the database except the LLM request log. Useful for
judging question quality or trying a different model.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringSlice("tags", nil, "Topic tags, e.g. --tags Array,\"Hash Table\"")
	previewCmd.Flags().Int("count", 1, "Number of questions to generate")
}

func runPreview(cmd *cobra.Command, args []string) error {
	tags, _ := cmd.Flags().GetStringSlice("tags")
	count, _ := cmd.Flags().GetInt("count")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.LLM.Validate(); err != nil {
		return err
	}
	st, dbPath, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	logger, closeLog := fileLogger(dbPath)
	defer closeLog()

	sy, err := buildSynthesizer(cmd, cfg, st, logger)
	if err != nil {
		return err
	}

	in := synth.Input{Name: args[0], Tags: tags}
	scanner := bufio.NewScanner(os.Stdin)
	var correct, answered int

	fmt.Printf("Problem: %s", in.Name)
	if len(tags) > 0 {
		fmt.Printf(" (%s)", in.TagsString())
	}
	fmt.Printf("\nGenerating %d question(s)...\n\n", count)

	for i := 1; i <= count; i++ {
		q, err := sy.Synthesize(cmd.Context(), in)
		if err != nil {
			fmt.Printf("Question %d: generation failed: %v\n\n", i, err)
			continue
		}

		fmt.Printf("── Question %d/%d ──\n", i, count)
		fmt.Println(delivery.RenderPrompt(q))
		fmt.Println()
		fmt.Println(delivery.RenderQuestion(q))

		fmt.Print("\nYour answer: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		label := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if label == "" {
			fmt.Print("(skipped)\n\n")
			continue
		}

		answered++
		if q.IsCorrectLabel(label) {
			correct++
			fmt.Println("\033[32m✓ Correct!\033[0m")
		} else {
			fmt.Println(delivery.RenderIncorrect(q, label))
		}
		fmt.Println()
	}

	fmt.Printf("── Summary: %d/%d correct ──\n", correct, answered)
	return nil
}
