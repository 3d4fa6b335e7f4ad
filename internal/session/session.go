// Package session handles saving/loading users to/from sessions
package session

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/dense-analysis/stockwarp/internal/database"
	"github.com/dense-analysis/stockwarp/internal/model"
)

var sessionStore *sessions.CookieStore

// InitSessionStorage starts up session storage with the given secret key.
func InitSessionStorage(secretKey string) {
	sessionStore = sessions.NewCookieStore([]byte(secretKey))
}

// LoadUserFromSession resolves the session cookie to a user, or nil when no
// identity is attached to the request.
func LoadUserFromSession(conn database.Queryable, request *http.Request) (*model.User, error) {
	session, sessionError := sessionStore.Get(request, "sessionid")

	if sessionError != nil {
		return nil, nil
	}

	if userID, ok := session.Values["userID"].(int); ok {
		row := conn.QueryRow(
			request.Context(),
			"select username from alert_user where id = $1",
			userID,
		)

		var username string

		if err := row.Scan(&username); err == nil {
			return &model.User{ID: userID, Username: username}, nil
		}
	}

	return nil, nil
}

func SaveUserInSession(writer http.ResponseWriter, request *http.Request, user *model.User) error {
	session, _ := sessionStore.Get(request, "sessionid")
	session.Values["userID"] = user.ID

	return session.Save(request, writer)
}

func ClearSession(writer http.ResponseWriter, request *http.Request) error {
	session, _ := sessionStore.Get(request, "sessionid")

	for key := range session.Values {
		delete(session.Values, key)
	}

	return session.Save(request, writer)
}

// DBUserSource loads the session user against a database connection.
type DBUserSource struct {
	DB database.Queryable
}

func (source *DBUserSource) LoadUser(request *http.Request) (*model.User, error) {
	return LoadUserFromSession(source.DB, request)
}
