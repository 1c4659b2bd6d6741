package models

// Group 买家团体（一个家庭/拼团单位），每次配送下一份订单
type Group struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Members []string `yaml:"members" json:"members"`
}

// Groups 团体注册表，整个站点一份
type Groups struct {
	Groups map[string]Group `yaml:"groups" json:"groups"`
}

// NewGroups 创建空注册表
func NewGroups() *Groups {
	return &Groups{Groups: map[string]Group{}}
}

// IsDefined 是否已有团体
func (g *Groups) IsDefined() bool {
	return g != nil && len(g.Groups) > 0
}

// AddGroup 登记新团体；id 冲突时报错
func (g *Groups) AddGroup(group Group) error {
	if g.Groups == nil {
		g.Groups = map[string]Group{}
	}
	if _, ok := g.Groups[group.ID]; ok {
		return ErrGroupExists
	}
	g.Groups[group.ID] = group
	return nil
}

// AddUser 把成员加入团体；先从原团体移除，保证一人只属一团
func (g *Groups) AddUser(email string, groupID string) (Group, error) {
	group, ok := g.Groups[groupID]
	if !ok {
		return Group{}, ErrGroupNotFound
	}
	g.RemoveUser(email)
	group = g.Groups[groupID]
	group.Members = append(group.Members, email)
	g.Groups[groupID] = group
	return group, nil
}

// RemoveUser 把成员从所属团体移除
func (g *Groups) RemoveUser(email string) {
	for id, group := range g.Groups {
		for i, member := range group.Members {
			if member == email {
				group.Members = append(group.Members[:i], group.Members[i+1:]...)
				g.Groups[id] = group
				break
			}
		}
	}
}

// UserGroup 查找成员所属团体
func (g *Groups) UserGroup(email string) (Group, bool) {
	for _, group := range g.Groups {
		for _, member := range group.Members {
			if member == email {
				return group, true
			}
		}
	}
	return Group{}, false
}
