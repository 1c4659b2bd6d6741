package handlers

import (
	"github.com/copanier-next/internal/models"

	"github.com/gin-gonic/gin"
)

const actorContextKey = "actor"

// SetActor 由鉴权中间件写入当前操作者
func SetActor(c *gin.Context, person models.Person) {
	c.Set(actorContextKey, person)
}

// currentActor 读取当前操作者；未登录时返回 false
func currentActor(c *gin.Context) (models.Person, bool) {
	value, ok := c.Get(actorContextKey)
	if !ok {
		return models.Person{}, false
	}
	person, ok := value.(models.Person)
	return person, ok
}
