// Command docmd converts office documents to Markdown and manages the
// content-addressed media store.
//
// Usage:
//
//	docmd convert [-chat id] [-format docx|xlsx|pptx|pdf] [-o out.md] file
//	docmd store get [-chat id] [-o out.bin] <content-id>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chatdocs/docmd"
	"github.com/chatdocs/docmd/internal/logger"
	"github.com/chatdocs/docmd/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "docmd:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: docmd <convert|store> ...")
	}
	switch args[0] {
	case "convert":
		return runConvert(args[1:])
	case "store":
		if len(args) < 2 || args[1] != "get" {
			return fmt.Errorf("usage: docmd store get <content-id>")
		}
		return runStoreGet(args[2:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// commonFlags registers the flags every subcommand shares.
type commonFlags struct {
	chatID    string
	dataDir   string
	remoteURL string
	token     string
	logLevel  string
	logFormat string
	out       string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.chatID, "chat", "", "chat id to bind stored media to")
	fs.StringVar(&c.dataDir, "data-dir", defaultDataDir(), "directory for the media store")
	fs.StringVar(&c.remoteURL, "remote", os.Getenv("DOCMD_REMOTE_URL"), "remote media sync base URL")
	fs.StringVar(&c.token, "token", os.Getenv("DOCMD_SESSION_TOKEN"), "remote session token")
	fs.StringVar(&c.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	fs.StringVar(&c.logFormat, "log-format", "text", "log format (text, json)")
	fs.StringVar(&c.out, "o", "", "write output to file instead of stdout")
}

func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "docmd")
	}
	return ".docmd"
}

// openStore builds the content store from the common flags.
func (c *commonFlags) openStore() (*store.Store, func(), error) {
	if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}
	records, err := store.OpenRecordDB(filepath.Join(c.dataDir, "records.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("opening record db: %w", err)
	}
	backend, err := store.NewFilesystemBackend(filepath.Join(c.dataDir, "media"))
	if err != nil {
		records.Close()
		return nil, nil, fmt.Errorf("opening media backend: %w", err)
	}

	var remote *store.RemoteClient
	if c.remoteURL != "" && c.token != "" {
		remote = store.NewRemoteClient(c.remoteURL, c.token)
	}
	st := store.New(backend, records, remote, logger.L)
	return st, func() { records.Close() }, nil
}

func (c *commonFlags) write(data []byte) error {
	if c.out == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(c.out, data, 0o644)
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	format := fs.String("format", "", "force document format (docx, xlsx, pptx, pdf)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: docmd convert [flags] <file>")
	}
	logger.Init(common.logLevel, common.logFormat)

	st, closeStore, err := common.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	conv, err := docmd.FromFile(fs.Arg(0))
	if err != nil {
		return err
	}
	conv.Chat(common.chatID).Store(st)
	if *format != "" {
		f, err := parseFormat(*format)
		if err != nil {
			return err
		}
		conv.Format(f)
	}

	ctx := logger.WithContext(context.Background(), logger.L)
	res, err := conv.Convert(ctx)
	if err != nil {
		return err
	}
	return common.write([]byte(res.Text + "\n"))
}

func runStoreGet(args []string) error {
	fs := flag.NewFlagSet("store get", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: docmd store get [flags] <content-id>")
	}
	logger.Init(common.logLevel, common.logFormat)

	st, closeStore, err := common.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := st.Get(context.Background(), fs.Arg(0), common.chatID)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("content %s not found", fs.Arg(0))
	}
	return common.write(data)
}

func parseFormat(s string) (docmd.Format, error) {
	switch s {
	case "docx":
		return docmd.FormatDocx, nil
	case "xlsx":
		return docmd.FormatXlsx, nil
	case "pptx":
		return docmd.FormatPptx, nil
	case "pdf":
		return docmd.FormatPDF, nil
	default:
		return docmd.FormatAuto, fmt.Errorf("unknown format %q", s)
	}
}
