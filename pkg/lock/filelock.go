package lock

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// HeldError reports the holder recorded in a lock file that is already
// locked by another process or handle.
type HeldError struct {
	PID   int
	Owner string
	Since time.Time
}

func (e *HeldError) Error() string {
	if e.PID <= 0 {
		return "lock held by another process"
	}
	msg := fmt.Sprintf("lock held by process %d", e.PID)
	if e.Owner != "" {
		msg += " (" + e.Owner + ")"
	}
	if !e.Since.IsZero() {
		msg += " since " + e.Since.Format(time.RFC3339)
	}
	return msg
}

func IsHeld(err error) bool {
	var held *HeldError
	return errors.As(err, &held)
}

// FileLock is an advisory flock on a file holding "<pid> <unix> <owner>".
type FileLock struct {
	file *os.File
	path string
}

// TryLock takes the lock without blocking. owner names the operation
// holding it and shows up in the error other callers get.
func TryLock(path, owner string) (*FileLock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		held := readHolder(file)
		_ = file.Close()
		return nil, held
	}

	fl := &FileLock{file: file, path: path}
	if err := fl.writeHolder(owner); err != nil {
		fl.Unlock()
		return nil, err
	}
	return fl, nil
}

func (fl *FileLock) writeHolder(owner string) error {
	if err := fl.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate lock file: %w", err)
	}
	if _, err := fl.file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to seek lock file: %w", err)
	}
	line := fmt.Sprintf("%d %d %s\n", os.Getpid(), time.Now().Unix(), strings.TrimSpace(owner))
	if _, err := fl.file.WriteString(line); err != nil {
		return fmt.Errorf("failed to write lock holder: %w", err)
	}
	return nil
}

func (fl *FileLock) Unlock() {
	if fl.file != nil {
		_ = syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN)
		_ = fl.file.Close()
		fl.file = nil
	}
}

func (fl *FileLock) Path() string {
	return fl.path
}

func readHolder(file *os.File) *HeldError {
	held := &HeldError{}
	if _, err := file.Seek(0, 0); err != nil {
		return held
	}
	line, _ := bufio.NewReader(file).ReadString('\n')
	fields := strings.SplitN(strings.TrimSpace(line), " ", 3)
	if len(fields) > 0 {
		held.PID, _ = strconv.Atoi(fields[0])
	}
	if len(fields) > 1 {
		if ts, err := strconv.ParseInt(fields[1], 10, 64); err == nil && ts > 0 {
			held.Since = time.Unix(ts, 0)
		}
	}
	if len(fields) > 2 {
		held.Owner = fields[2]
	}
	return held
}
