package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	got, err := ResolveDir(dir)
	if err != nil || got != dir {
		t.Errorf("ResolveDir() = %q, %v", got, err)
	}

	if _, err := ResolveDir(filepath.Join(dir, "missing")); !errors.Is(err, ErrDirectoryNotFound) {
		t.Errorf("missing dir error = %v, want ErrDirectoryNotFound", err)
	}
	file := filepath.Join(dir, "a.wav")
	touch(t, file)
	if _, err := ResolveDir(file); !errors.Is(err, ErrDirectoryNotFound) {
		t.Errorf("file error = %v, want ErrDirectoryNotFound", err)
	}
}

func TestEnsureWithin(t *testing.T) {
	t.Parallel()

	base := filepath.FromSlash("/music/album")
	tests := []struct {
		target string
		want   string
		err    bool
	}{
		{"mastered", filepath.FromSlash("/music/album/mastered"), false},
		{".", base, false},
		{filepath.FromSlash("/music/album/out/deep"), filepath.FromSlash("/music/album/out/deep"), false},
		{filepath.FromSlash("../elsewhere"), "", true},
		{filepath.FromSlash("/tmp/out"), "", true},
		{filepath.FromSlash("sub/../../escape"), "", true},
		{"..foo", filepath.FromSlash("/music/album/..foo"), false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := EnsureWithin(base, tt.target)
			if tt.err {
				if !errors.Is(err, ErrOutputOutsideInput) {
					t.Errorf("EnsureWithin(%q) error = %v, want ErrOutputOutsideInput", tt.target, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("EnsureWithin(%q) = %q, %v, want %q", tt.target, got, err, tt.want)
			}
		})
	}
}

func TestWAVFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.wav", "A.WAV", "c.Wav", "notes.txt", "venv-track.wav"} {
		touch(t, filepath.Join(dir, name))
	}
	touch(t, filepath.Join(dir, "sub", "nested.wav"))
	if err := os.Mkdir(filepath.Join(dir, "folder.wav"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := WAVFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "A.WAV"),
		filepath.Join(dir, "b.wav"),
		filepath.Join(dir, "c.Wav"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("WAVFiles() = %v, want %v", got, want)
	}
}

func TestFullMixSource(t *testing.T) {
	dir := t.TempDir()
	if got := FullMixSource(dir); got != dir {
		t.Errorf("without originals = %q", got)
	}
	originals := filepath.Join(dir, OriginalsDir)
	if err := os.Mkdir(originals, 0o755); err != nil {
		t.Fatal(err)
	}
	if got := FullMixSource(dir); got != originals {
		t.Errorf("with originals = %q, want %q", got, originals)
	}
}

func TestStemTracks(t *testing.T) {
	dir := t.TempDir()
	if _, err := StemTracks(dir); !errors.Is(err, ErrNoInputs) {
		t.Errorf("missing stems/ error = %v, want ErrNoInputs", err)
	}

	touch(t, filepath.Join(dir, StemsDir, "02-second", "vocals.wav"))
	touch(t, filepath.Join(dir, StemsDir, "01-first", "drums.wav"))
	touch(t, filepath.Join(dir, StemsDir, "stray.wav"))
	got, err := StemTracks(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []TrackDir{
		{Name: "01-first", Path: filepath.Join(dir, StemsDir, "01-first")},
		{Name: "02-second", Path: filepath.Join(dir, StemsDir, "02-second")},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StemTracks() = %v, want %v", got, want)
	}
}

func makeTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{Index: i, Name: fmt.Sprintf("track-%02d", i)}
	}
	return tasks
}

func TestRunPreservesOrder(t *testing.T) {
	for _, jobs := range []int{1, 4, 0} {
		t.Run(fmt.Sprintf("jobs=%d", jobs), func(t *testing.T) {
			tasks := makeTasks(12)
			out := Run(context.Background(), Runner{Jobs: jobs}, tasks, func(_ context.Context, task Task) (int, error) {
				// Later tasks finish first.
				time.Sleep(time.Duration(len(tasks)-task.Index) * time.Millisecond)
				return task.Index * 10, nil
			})
			for i, o := range out {
				if o.Task.Index != i || o.Value != i*10 || o.Err != nil {
					t.Fatalf("outcome %d = %+v", i, o)
				}
			}
		})
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var active, peak int32
	Run(context.Background(), Runner{Jobs: 3}, makeTasks(20), func(context.Context, Task) (struct{}, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return struct{}{}, nil
	})
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestRunPartialFailure(t *testing.T) {
	boom := errors.New("boom")
	out := Run(context.Background(), Runner{Jobs: 2}, makeTasks(5), func(_ context.Context, task Task) (string, error) {
		if task.Index == 2 {
			return "", boom
		}
		return task.Name, nil
	})
	if !errors.Is(out[2].Err, boom) {
		t.Errorf("task 2 error = %v", out[2].Err)
	}
	if Failed(out) != 1 {
		t.Errorf("Failed() = %d, want 1", Failed(out))
	}
	want := []string{"track-00", "track-01", "track-03", "track-04"}
	if got := Values(out); !reflect.DeepEqual(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	out := Run(ctx, Runner{Jobs: 1}, makeTasks(4), func(_ context.Context, task Task) (int, error) {
		calls++
		if task.Index == 1 {
			cancel()
		}
		return task.Index, nil
	})
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	for _, o := range out[2:] {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("task %d error = %v, want context.Canceled", o.Task.Index, o.Err)
		}
	}
}

func TestRunObserver(t *testing.T) {
	var (
		mu     sync.Mutex
		events = map[EventKind]int{}
	)
	r := Runner{Jobs: 3, Observer: func(e Event) {
		mu.Lock()
		events[e.Kind]++
		mu.Unlock()
	}}
	Run(context.Background(), r, makeTasks(7), func(context.Context, Task) (int, error) { return 0, nil })
	if events[TaskStarted] != 7 || events[TaskFinished] != 7 {
		t.Errorf("events = %v, want 7 started and 7 finished", events)
	}
}

func TestWorkers(t *testing.T) {
	t.Parallel()

	if got := (Runner{Jobs: 8}).Workers(3); got != 3 {
		t.Errorf("Workers capped by tasks = %d, want 3", got)
	}
	if got := (Runner{Jobs: 1}).Workers(10); got != 1 {
		t.Errorf("sequential = %d", got)
	}
	if got := (Runner{}).Workers(0); got != 1 {
		t.Errorf("no tasks = %d, want 1", got)
	}
}
