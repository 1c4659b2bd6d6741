package service

import (
	"sort"
	"strings"

	"github.com/copanier-next/internal/models"
	"github.com/copanier-next/internal/storage"
)

// GroupService 买家团体注册表维护
type GroupService struct {
	store *storage.GroupStore
}

// NewGroupService 创建团体服务
func NewGroupService(store *storage.GroupStore) *GroupService {
	return &GroupService{store: store}
}

// List 全部团体，按 id 排序
func (s *GroupService) List() ([]models.Group, error) {
	groups, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	list := make([]models.Group, 0, len(groups.Groups))
	for _, group := range groups.Groups {
		list = append(list, group)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// Create 登记新团体，创建者自动入团
func (s *GroupService) Create(actor models.Person, id string, name string) (models.Group, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return models.Group{}, &models.FieldError{Field: "id", Value: id, Err: models.ErrInvalidRef}
	}
	groups, err := s.store.Load()
	if err != nil {
		return models.Group{}, err
	}
	group := models.Group{ID: id, Name: name}
	if err := groups.AddGroup(group); err != nil {
		return models.Group{}, err
	}
	if actor.Email != "" {
		if group, err = groups.AddUser(actor.Email, id); err != nil {
			return models.Group{}, err
		}
	}
	if err := s.store.Persist(groups); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// Join 加入团体；一人只属一团，原团体自动退出
func (s *GroupService) Join(actor models.Person, groupID string) (models.Group, error) {
	groups, err := s.store.Load()
	if err != nil {
		return models.Group{}, err
	}
	group, err := groups.AddUser(actor.Email, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if err := s.store.Persist(groups); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// Leave 退出所属团体
func (s *GroupService) Leave(actor models.Person) error {
	groups, err := s.store.Load()
	if err != nil {
		return err
	}
	groups.RemoveUser(actor.Email)
	return s.store.Persist(groups)
}

// Resolve 把邮箱解析成带团体信息的完整身份
func (s *GroupService) Resolve(email string) (models.Person, error) {
	person := models.Person{Email: email}
	groups, err := s.store.Load()
	if err != nil {
		return person, err
	}
	if group, ok := groups.UserGroup(email); ok {
		person.GroupID = group.ID
		person.GroupName = group.Name
	}
	return person, nil
}
