package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	expect "github.com/Netflix/go-expect"
	"github.com/creack/pty"

	"github.com/abelbrown/talkatoo/internal/moon"
	"github.com/abelbrown/talkatoo/internal/store"
)

// buildTalkatoo builds the talkatoo binary for testing.
func buildTalkatoo(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "talkatoo")

	rootDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	// We are in test/e2e
	rootDir = filepath.Join(rootDir, "..", "..")

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/talkatoo")
	cmd.Dir = rootDir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	return binPath
}

// startApp runs talkatoo on a fresh pty attached to an expect console.
func startApp(t *testing.T, binPath, dataDir string) (*expect.Console, *exec.Cmd, *bytes.Buffer) {
	t.Helper()

	var outputBuf bytes.Buffer
	console, err := expect.NewConsole(
		expect.WithStdout(&outputBuf),
		expect.WithDefaultTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("failed to create console: %v", err)
	}
	t.Cleanup(func() { console.Close() })

	if err := pty.Setsize(console.Tty(), &pty.Winsize{Cols: 120, Rows: 40}); err != nil {
		t.Fatalf("failed to set pty size: %v", err)
	}

	cmd := exec.Command(binPath)
	cmd.Env = append(os.Environ(),
		"TALKATOO_DATA_DIR="+dataDir,
		"TALKATOO_CATALOG=",
		"TALKATOO_FEED=",
		"TALKATOO_NTFY_TOPIC=",
	)
	cmd.Stdin = console.Tty()
	cmd.Stdout = console.Tty()
	cmd.Stderr = console.Tty()

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start talkatoo: %v", err)
	}
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	return console, cmd, &outputBuf
}

func dumpLogs(t *testing.T, dataDir string) {
	t.Helper()
	logs, _ := filepath.Glob(filepath.Join(dataDir, "logs", "*.log"))
	for _, l := range logs {
		if data, err := os.ReadFile(l); err == nil {
			t.Logf("%s:\n%s", filepath.Base(l), data)
		}
	}
}

func TestE2E_MentionToCollection(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs the binary")
	}
	binPath := buildTalkatoo(t)

	dataDir := t.TempDir()
	feedPath, err := seedDataDir(dataDir)
	if err != nil {
		t.Fatalf("failed to seed data dir: %v", err)
	}

	console, cmd, out := startApp(t, binPath, dataDir)

	// 1. Wait for the empty list
	t.Log("Waiting for startup...")
	if _, err := console.ExpectString("No mentions yet"); err != nil {
		dumpLogs(t, dataDir)
		t.Fatalf("startup failed: %v\nScreen:\n%s", err, out.String())
	}

	// 2. The recognizer moves to Sand and hears Talkatoo
	if err := appendFeed(feedPath,
		`{"type":"kingdom","kingdom":"Sand"}`,
		`{"type":"mention","moons":[{"id":1,"kingdom":"Sand"},{"id":2,"kingdom":"Sand"}]}`,
	); err != nil {
		t.Fatal(err)
	}

	t.Log("Waiting for the mention...")
	if _, err := console.ExpectString("Moon Shards in the Sand"); err != nil {
		dumpLogs(t, dataDir)
		t.Fatalf("mention not shown: %v\nScreen:\n%s", err, out.String())
	}

	// 3. Confirm the second option
	time.Sleep(200 * time.Millisecond)
	if _, err := console.Send("2"); err != nil {
		t.Fatalf("failed to send 2: %v", err)
	}
	if _, err := console.ExpectString("Collected Sand"); err != nil {
		t.Fatalf("no confirmation toast: %v\nScreen:\n%s", err, out.String())
	}

	// 4. Quit
	time.Sleep(200 * time.Millisecond)
	if _, err := console.Send("q"); err != nil {
		t.Fatalf("failed to send q: %v", err)
	}
	if !waitExit(cmd.Wait, 3*time.Second) {
		t.Fatal("process did not exit after 'q'")
	}

	// 5. The collection survived in the store
	st, err := store.Open(filepath.Join(dataDir, store.DBFile))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	run, err := st.CurrentRun()
	if err != nil {
		t.Fatal(err)
	}
	keys, err := st.LoadCollected(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := moon.Key{ID: 2, Kingdom: moon.Sand}
	if len(keys) != 1 || keys[0] != want {
		t.Errorf("stored collection = %v, want [%s]", keys, want)
	}
}

func TestE2E_SecondInstanceIsRefused(t *testing.T) {
	if testing.Short() {
		t.Skip("builds and runs the binary")
	}
	binPath := buildTalkatoo(t)

	dataDir := t.TempDir()
	if _, err := seedDataDir(dataDir); err != nil {
		t.Fatal(err)
	}

	unlock, err := store.LockDataDir(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	cmd := exec.Command(binPath)
	cmd.Env = append(os.Environ(), "TALKATOO_DATA_DIR="+dataDir)
	output, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatal("a locked data dir should make talkatoo exit with an error")
	}
	if !bytes.Contains(output, []byte("in use")) {
		t.Errorf("expected a lock error, got:\n%s", output)
	}
}
