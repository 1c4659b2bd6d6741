package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/copanier-next/internal/logger"
	"github.com/copanier-next/internal/models"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
)

const (
	deliveryDirName = "delivery"
	archiveDirName  = "archive"
	recordExt       = ".yml"
)

// DeliveryStore 配送记录的文件存储。
// 写锁只在落盘期间持有，不覆盖整个读-改-写流程；同一 id 的并发请求
// 按后写者胜出处理，这是接受的风险而不是线性一致性承诺。
type DeliveryStore struct {
	root string
	mu   sync.Mutex
}

// NewDeliveryStore 创建配送存储；root 是数据根目录
func NewDeliveryStore(root string) *DeliveryStore {
	return &DeliveryStore{root: root}
}

// path 由 id 推导文件路径；归档 id（archive/xxx）天然落到归档子目录
func (s *DeliveryStore) path(id string) string {
	return filepath.Join(s.root, deliveryDirName, filepath.FromSlash(id)+recordExt)
}

// Load 读取一条配送记录；多余的未知字段被容忍（但下次落盘即丢失）。
// 发现重复商品 ref 时就地修复并立即回写。
func (s *DeliveryStore) Load(id string) (*models.Delivery, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read delivery %s failed: %w", id, err)
	}
	var delivery models.Delivery
	if err := yaml.Unmarshal(data, &delivery); err != nil {
		return nil, fmt.Errorf("decode delivery %s failed: %w", id, err)
	}
	delivery.ID = id

	if delivery.DedupeProducts() {
		logger.Warnw("delivery_duplicate_ref_repaired", "delivery_id", id)
		if err := s.Persist(&delivery); err != nil {
			return nil, err
		}
	}
	return &delivery, nil
}

// Persist 整记录落盘；无 id 时补发一个新 uuid。锁只护住这次写入。
func (s *DeliveryStore) Persist(delivery *models.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if delivery.ID == "" {
		delivery.ID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	data, err := yaml.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("encode delivery %s failed: %w", delivery.ID, err)
	}
	return writeFileAtomic(s.path(delivery.ID), data)
}

// List 列出某命名空间（"" 为当前，archive 为归档）下的全部 id
func (s *DeliveryStore) List(namespace string) ([]string, error) {
	dir := filepath.Join(s.root, deliveryDirName)
	prefix := ""
	if namespace == archiveDirName {
		dir = filepath.Join(dir, archiveDirName)
		prefix = models.ArchivePrefix
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list deliveries failed: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}
		ids = append(ids, prefix+strings.TrimSuffix(entry.Name(), recordExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// All 加载当前命名空间的全部配送
func (s *DeliveryStore) All() ([]*models.Delivery, error) {
	ids, err := s.List("")
	if err != nil {
		return nil, err
	}
	deliveries := make([]*models.Delivery, 0, len(ids))
	for _, id := range ids {
		delivery, err := s.Load(id)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, delivery)
	}
	return deliveries, nil
}

// Incoming 配送日未到的配送，按订购截止时间升序
func (s *DeliveryStore) Incoming() ([]*models.Delivery, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var incoming []*models.Delivery
	for _, d := range all {
		if d.IsForeseen() {
			incoming = append(incoming, d)
		}
	}
	sort.Slice(incoming, func(i, j int) bool {
		return incoming[i].OrderBefore.Before(incoming[j].OrderBefore)
	})
	return incoming, nil
}

// Former 配送日已过的配送，按配送时间降序
func (s *DeliveryStore) Former() ([]*models.Delivery, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	var former []*models.Delivery
	for _, d := range all {
		if !d.IsForeseen() {
			former = append(former, d)
		}
	}
	sort.Slice(former, func(i, j int) bool {
		return former[i].FromDate.After(former[j].FromDate)
	})
	return former, nil
}

// Archive 把记录移入归档命名空间，返回新 id。
// 对已归档的记录重复归档会明确报错，不做静默跳过。
func (s *DeliveryStore) Archive(id string) (string, error) {
	if strings.HasPrefix(id, models.ArchivePrefix) {
		return "", ErrAlreadyArchived
	}
	newID := models.ArchivePrefix + id
	if err := s.move(id, newID); err != nil {
		return "", err
	}
	return newID, nil
}

// Unarchive 把记录移回当前命名空间，恢复归档前的 id
func (s *DeliveryStore) Unarchive(id string) (string, error) {
	if !strings.HasPrefix(id, models.ArchivePrefix) {
		return "", ErrNotArchived
	}
	newID := strings.TrimPrefix(id, models.ArchivePrefix)
	if err := s.move(id, newID); err != nil {
		return "", err
	}
	return newID, nil
}

// move 单次原子改名完成命名空间迁移，数据逐位保持不变
func (s *DeliveryStore) move(fromID, toID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, dst := s.path(fromID), s.path(toID)
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("stat delivery %s failed: %w", fromID, err)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("delivery %s already exists in target namespace", toID)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create namespace dir failed: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move delivery %s failed: %w", fromID, err)
	}
	return nil
}
