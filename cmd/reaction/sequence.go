package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/reaction-duel/internal/reaction"
)

var (
	flagSeqSeed   uint32
	flagSeqLength int
	flagSeqNames  bool
)

var sequenceCmd = &cobra.Command{
	Use:   "sequence",
	Short: "Print the sequence a seed produces",
	Long: `Print the button sequence generated from a shared seed.

Two peers that agree on a seed see exactly this sequence, so the output
can be compared across machines. Digits are 0=Start 1=Select 2=A 3=B.

Examples:
  reaction sequence --seed 1234
  reaction sequence --seed 1234 --length 20 --names`,
	Args: cobra.NoArgs,
	RunE: runSequence,
}

func init() {
	sequenceCmd.Flags().Uint32Var(&flagSeqSeed, "seed", 0, "Shared seed")
	sequenceCmd.Flags().IntVar(&flagSeqLength, "length", reaction.DefaultLength, "Number of symbols")
	sequenceCmd.Flags().BoolVar(&flagSeqNames, "names", false, "Print button names instead of digits")
	_ = sequenceCmd.MarkFlagRequired("seed")
}

func runSequence(_ *cobra.Command, _ []string) error {
	if flagSeqLength <= 0 {
		return fmt.Errorf("length must be positive, got %d", flagSeqLength)
	}

	seq := reaction.Generate(flagSeqSeed, flagSeqLength)
	if !flagSeqNames {
		fmt.Println(seq.String())
		return nil
	}

	names := make([]string, len(seq))
	for i, sym := range seq {
		names[i] = reaction.ButtonName(sym)
	}
	fmt.Println(strings.Join(names, " "))
	return nil
}
