package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/Faultbox/creature/internal/engine/skeleton"
)

func cmdInfo(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	cfg, err := setup(fs, args)
	if err != nil {
		return err
	}

	s, err := loadSession(cfg)
	if err != nil {
		return err
	}
	comp := s.mesh.Composition()

	fmt.Fprintf(out, "Creature: %s\n", cfg.Asset.Path)
	fmt.Fprintf(out, "Points:   %d\n", s.mesh.TotalNumPoints())
	fmt.Fprintf(out, "Indices:  %d\n", s.mesh.TotalNumIndices())
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Bones:")
	printBone(out, comp.RootBone(), 1)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Regions:")
	for _, r := range comp.Regions() {
		mainBone := "-"
		if b := r.MainBone(); b != nil {
			mainBone = b.Key()
		}
		fmt.Fprintf(out, "  %-16s id %-3d points %d-%d  main bone %s\n",
			r.Name(), r.TagID(), r.StartPtIndex(), r.EndPtIndex(), mainBone)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Animations:")
	for _, name := range s.manager.AnimationNames() {
		a, _ := s.manager.Animation(name)
		marker := " "
		if name == s.manager.ActiveAnimationName() {
			marker = "*"
		}
		fmt.Fprintf(out, " %s%-16s frames %d-%d\n", marker, name, a.StartTime(), a.EndTime())
	}
	return nil
}

func printBone(out io.Writer, b *skeleton.Bone, depth int) {
	fmt.Fprintf(out, "%s%s  length %.3f\n", strings.Repeat("  ", depth), b.Key(), b.RestLength())
	for _, c := range b.Children() {
		printBone(out, c, depth+1)
	}
}
