package server

import (
	"fmt"
	"net/http"
	"testing"

	"classhub/internal/models"
	"classhub/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassroomLifecycle(t *testing.T) {
	t.Parallel()
	s, app := newTestServer(t)

	hostToken := registerUser(t, app, "hostess", "hostess@example.com")
	otherToken := registerUser(t, app, "visitor", "visitor@example.com")

	classroomID := createClassroom(t, app, hostToken, "Calculus", "Derivatives study group")

	t.Run("create resolves the topic", func(t *testing.T) {
		var topic models.Topic
		require.NoError(t, s.db.Where("name = ?", "Calculus").First(&topic).Error)
	})

	t.Run("reusing a topic name does not duplicate it", func(t *testing.T) {
		createClassroom(t, app, otherToken, "Calculus", "Integrals study group")
		var count int64
		require.NoError(t, s.db.Model(&models.Topic{}).Where("name = ?", "Calculus").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("non-host cannot update", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPut,
			fmt.Sprintf("/api/classrooms/%d", classroomID), map[string]string{
				"topic": "Calculus",
				"name":  "Taken over",
			}, otherToken))
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("host can update", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPut,
			fmt.Sprintf("/api/classrooms/%d", classroomID), map[string]string{
				"topic": "Analysis",
				"name":  "Derivatives and limits",
			}, hostToken))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var classroom models.Classroom
		decodeJSON(t, resp, &classroom)
		assert.Equal(t, "Derivatives and limits", classroom.Name)
	})

	t.Run("anonymous detail omits membership", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodGet,
			fmt.Sprintf("/api/classrooms/%d", classroomID), nil, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var detail struct {
			IsMember bool `json:"is_member"`
		}
		decodeJSON(t, resp, &detail)
		assert.False(t, detail.IsMember)
	})

	t.Run("posting a message joins the roster", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost,
			fmt.Sprintf("/api/classrooms/%d/messages", classroomID), map[string]string{
				"body": "anyone up for a study session?",
			}, otherToken))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp, err = app.Test(jsonRequest(t, http.MethodGet,
			fmt.Sprintf("/api/classrooms/%d", classroomID), nil, otherToken))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var detail struct {
			IsMember bool             `json:"is_member"`
			Messages []models.Message `json:"messages"`
		}
		decodeJSON(t, resp, &detail)
		assert.True(t, detail.IsMember)
		assert.Len(t, detail.Messages, 1)
	})

	t.Run("non-author cannot delete a message", func(t *testing.T) {
		var message models.Message
		require.NoError(t, s.db.First(&message).Error)

		resp, err := app.Test(jsonRequest(t, http.MethodDelete,
			fmt.Sprintf("/api/messages/%d", message.ID), nil, hostToken))
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("host delete cascades", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodDelete,
			fmt.Sprintf("/api/classrooms/%d", classroomID), nil, hostToken))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var count int64
		require.NoError(t, s.db.Model(&models.Message{}).Where("classroom_id = ?", classroomID).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestBrowseClassrooms(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	token := registerUser(t, app, "teacher", "teacher@example.com")
	createClassroom(t, app, token, "History", "Roman empire")
	createClassroom(t, app, token, "History", "Middle ages")
	createClassroom(t, app, token, "Physics", "Waves and optics")
	createClassroom(t, app, token, "Physics", "Mechanics")
	createClassroom(t, app, token, "Physics", "Thermodynamics")

	t.Run("search matches topic substring", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/classrooms?q=hist", nil, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.BrowseResult
		decodeJSON(t, resp, &result)
		assert.Equal(t, int64(2), result.Total)
		assert.Len(t, result.Classrooms, 2)
	})

	t.Run("search matches host username", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/classrooms?q=teach", nil, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.BrowseResult
		decodeJSON(t, resp, &result)
		assert.Equal(t, int64(5), result.Total)
	})

	t.Run("pages are capped at the browse page size", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/classrooms", nil, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.BrowseResult
		decodeJSON(t, resp, &result)
		assert.Equal(t, int64(5), result.Total)
		assert.Len(t, result.Classrooms, service.BrowsePageSize)

		resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/classrooms?page=2", nil, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeJSON(t, resp, &result)
		assert.Len(t, result.Classrooms, 2)
	})

	t.Run("sidebar carries topics", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/classrooms", nil, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.BrowseResult
		decodeJSON(t, resp, &result)
		assert.Len(t, result.Topics, 2)
	})

	t.Run("unknown classroom is 404", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/classrooms/999", nil, ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCreateTopic(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	t.Run("creates a topic", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/topics",
			map[string]string{"name": "Linear Algebra"}, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var topic models.Topic
		decodeJSON(t, resp, &topic)
		assert.Equal(t, "Linear Algebra", topic.Name)
		assert.NotZero(t, topic.ID)
	})

	t.Run("posting an existing name returns the same topic", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/topics",
			map[string]string{"name": "Geometry"}, ""))
		require.NoError(t, err)
		var first models.Topic
		decodeJSON(t, resp, &first)

		resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/topics",
			map[string]string{"name": "Geometry"}, ""))
		require.NoError(t, err)
		var second models.Topic
		decodeJSON(t, resp, &second)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/topics",
			map[string]string{"name": "   "}, ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestTopicItemRoutes(t *testing.T) {
	t.Parallel()
	_, app := newTestServer(t)

	token := registerUser(t, app, "curator", "curator@example.com")
	classroomID := createClassroom(t, app, token, "Botany", "Plant biology study group")

	resp, err := app.Test(jsonRequest(t, http.MethodGet,
		fmt.Sprintf("/api/classrooms/%d", classroomID), nil, ""))
	require.NoError(t, err)
	var detail struct {
		Classroom models.Classroom `json:"classroom"`
	}
	decodeJSON(t, resp, &detail)
	require.NotNil(t, detail.Classroom.TopicID)
	topicID := *detail.Classroom.TopicID

	t.Run("retrieve", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodGet,
			fmt.Sprintf("/api/topics/%d", topicID), nil, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var topic models.Topic
		decodeJSON(t, resp, &topic)
		assert.Equal(t, "Botany", topic.Name)
	})

	t.Run("unknown topic is 404", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/topics/999", nil, ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("rename", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPut,
			fmt.Sprintf("/api/topics/%d", topicID),
			map[string]string{"name": "Plant Biology"}, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var topic models.Topic
		decodeJSON(t, resp, &topic)
		assert.Equal(t, "Plant Biology", topic.Name)
	})

	t.Run("rename to empty is rejected", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodPut,
			fmt.Sprintf("/api/topics/%d", topicID),
			map[string]string{"name": "  "}, ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("delete untags classrooms", func(t *testing.T) {
		resp, err := app.Test(jsonRequest(t, http.MethodDelete,
			fmt.Sprintf("/api/topics/%d", topicID), nil, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, err = app.Test(jsonRequest(t, http.MethodGet,
			fmt.Sprintf("/api/topics/%d", topicID), nil, ""))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, err = app.Test(jsonRequest(t, http.MethodGet,
			fmt.Sprintf("/api/classrooms/%d", classroomID), nil, ""))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var detail struct {
			Classroom models.Classroom `json:"classroom"`
		}
		decodeJSON(t, resp, &detail)
		assert.Nil(t, detail.Classroom.TopicID)
	})
}
