// nodusgen drives typed-helper generation for graph schemas. The
// schema manifest is ordinary Go code, so generation runs through a
// small program in the user's module; nodusgen scaffolds that program
// and re-runs it, optionally on every schema change.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nodusgen",
		Short:         "generate typed helper packages for nodus graph schemas",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newInitCmd(), newGenerateCmd())
	return root
}

func newInitCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "init [schema-dir]",
		Short: "scaffold a generate program next to the schema types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "schema"
			if len(args) == 1 {
				dir = args[0]
			}
			path := filepath.Join(dir, "generate.go")
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			src := strings.ReplaceAll(generateScaffold, "{{target}}", target)
			if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "./gen", "directory the helper packages are written to")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var (
		path  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "run the generate program, optionally on every schema change",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := runGenerate(cmd, path); err != nil {
				if !watch {
					return err
				}
				log.Error("generate failed", zap.Error(err))
			}
			if !watch {
				return nil
			}
			return watchSchema(cmd, log, path)
		},
	}
	cmd.Flags().StringVar(&path, "path", filepath.Join("schema", "generate.go"), "generate program to run")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-generate when the schema directory changes")
	return cmd
}

func runGenerate(cmd *cobra.Command, path string) error {
	run := exec.CommandContext(cmd.Context(), "go", "run", path)
	run.Stdout = cmd.OutOrStdout()
	run.Stderr = cmd.ErrOrStderr()
	return run.Run()
}

// watchSchema re-runs the generate program whenever a Go file in its
// directory changes. Events are debounced: editors emit bursts of
// writes per save.
func watchSchema(cmd *cobra.Command, log *zap.Logger, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	log.Info("watching", zap.String("dir", dir))

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if filepath.Ext(ev.Name) != ".go" {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(500*time.Millisecond, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("watch error", zap.Error(err))
		case <-pending:
			log.Info("schema changed, regenerating")
			if err := runGenerate(cmd, path); err != nil {
				log.Error("generate failed", zap.Error(err))
			} else {
				log.Info("generate succeeded")
			}
		}
	}
}

const generateScaffold = `//go:build ignore

package main

import (
	"context"
	"log"

	"github.com/syssam/nodus/compiler/gen"
	"github.com/syssam/nodus/schema"
)

func main() {
	reg := schema.NewRegistry()
	err := reg.Initialize(schema.Types(
	// Register your node and relationship types here, e.g.:
	//	&Person{},
	//	&WorksFor{},
	)...)
	if err != nil {
		log.Fatal(err)
	}
	if err := gen.Generate(context.Background(), reg, gen.Config{Target: "{{target}}"}); err != nil {
		log.Fatal(err)
	}
}
`
