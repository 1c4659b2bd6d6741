package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/copanier-next/internal/models"

	"github.com/goccy/go-yaml"
)

const groupsFileName = "groups/groups.yml"

// GroupStore 团体注册表存储：整站一个文件，一把写锁
type GroupStore struct {
	root string
	mu   sync.Mutex
}

// NewGroupStore 创建团体存储
func NewGroupStore(root string) *GroupStore {
	return &GroupStore{root: root}
}

func (s *GroupStore) path() string {
	return filepath.Join(s.root, filepath.FromSlash(groupsFileName))
}

// Load 读取注册表；文件不存在视为空注册表
func (s *GroupStore) Load() (*models.Groups, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewGroups(), nil
		}
		return nil, fmt.Errorf("read groups failed: %w", err)
	}
	groups := models.NewGroups()
	if err := yaml.Unmarshal(data, groups); err != nil {
		return nil, fmt.Errorf("decode groups failed: %w", err)
	}
	if groups.Groups == nil {
		groups.Groups = map[string]models.Group{}
	}
	return groups, nil
}

// Persist 整文件落盘
func (s *GroupStore) Persist(groups *models.Groups) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(groups)
	if err != nil {
		return fmt.Errorf("encode groups failed: %w", err)
	}
	return writeFileAtomic(s.path(), data)
}
