package storage

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

const sftpSuffix = ".json"

// SFTPConfig describes the remote directory that holds the store.
type SFTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Dir      string
}

// SFTPStore keeps one JSON file per key in a directory on a remote host.
type SFTPStore struct {
	*sftp.Client
	sshClient *ssh.Client
	dir       string
	log       *zap.SugaredLogger
}

// DialSFTP connects over ssh and prepares the store directory.
func DialSFTP(cfg SFTPConfig, log *zap.SugaredLogger) (*SFTPStore, error) {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("no authentication method provided for %s", cfg.Host)
	}

	config := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{ssh.Password(cfg.Password)},
		// TODO: accept a known_hosts file via storage.sftp.known_hosts
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	sshClient, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("failed to create sftp client: %w", err)
	}

	return NewSFTPStore(sftpClient, sshClient, cfg.Dir, log)
}

// NewSFTPStore wraps an existing sftp client. sshClient may be nil when the
// caller owns the underlying connection.
func NewSFTPStore(client *sftp.Client, sshClient *ssh.Client, dir string, log *zap.SugaredLogger) (*SFTPStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := client.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}

	return &SFTPStore{
		Client:    client,
		sshClient: sshClient,
		dir:       dir,
		log:       log,
	}, nil
}

func (s *SFTPStore) keyPath(key string) string {
	return path.Join(s.dir, url.PathEscape(key)+sftpSuffix)
}

func (s *SFTPStore) Get(ctx context.Context, key string, v any) error {
	f, err := s.Client.Open(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to open %s: %w", key, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	return decode(data, v)
}

// Set writes to a temporary file and renames it over the target so a reader
// never sees a half-written value.
func (s *SFTPStore) Set(ctx context.Context, key string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}

	target := s.keyPath(key)
	tmp := target + ".tmp"

	f, err := s.Client.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		s.Client.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		s.Client.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}

	if err := s.Client.PosixRename(tmp, target); err != nil {
		s.log.Debugf("posix-rename unsupported for %s, falling back: %v", key, err)
		s.Client.Remove(target)
		if err := s.Client.Rename(tmp, target); err != nil {
			return fmt.Errorf("failed to rename %s: %w", tmp, err)
		}
	}
	return nil
}

func (s *SFTPStore) Remove(ctx context.Context, key string) error {
	if err := s.Client.Remove(s.keyPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (s *SFTPStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	files, err := s.Client.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var keys []string
	for _, file := range files {
		name := file.Name()
		if file.IsDir() || !strings.HasSuffix(name, sftpSuffix) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, sftpSuffix))
		if err != nil {
			s.log.Warnf("skipping undecodable key file %s: %v", name, err)
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the sftp session and, when this store dialled it, the ssh
// connection.
func (s *SFTPStore) Close() error {
	err := s.Client.Close()
	if s.sshClient != nil {
		if cerr := s.sshClient.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
