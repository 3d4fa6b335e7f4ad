package auth

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dense-analysis/stockwarp/internal/database"
	"github.com/dense-analysis/stockwarp/internal/model"
	"github.com/dense-analysis/stockwarp/internal/route/util"
	"github.com/dense-analysis/stockwarp/internal/session"
)

var htmlTemplate = `<!DOCTYPE html>
<html lang="en">
	<head>
		<meta charset="UTF-8">
		<title>Stockwarp</title>
	</head>
	<body>
		{htmlBody}
	</body>
</html>
`

// Handler serves login and logout.
type Handler struct {
	DB database.Queryable
}

func (handler *Handler) HandleViewLoginForm(writer http.ResponseWriter, request *http.Request) {
	loginFormBody := `
		<p>Log in!</p>
		{errorMessage}
		<form method="post">
			<label>
				Username:
				<input type="text" name="username">
			</label>
			<label>
				Password:
				<input type="password" name="password">
			</label>
			<input type="submit" value="Submit">
		</form>`

	errorMessage := ""

	if request.Method == "POST" {
		errorMessage = "<p>Invalid login!</p>"
	}

	pageHtmlTemplate := strings.Replace(htmlTemplate, "{htmlBody}", loginFormBody, 1)
	html := strings.Replace(pageHtmlTemplate, "{errorMessage}", errorMessage, 1)
	fmt.Fprint(writer, html)
}

func (handler *Handler) HandleLogin(writer http.ResponseWriter, request *http.Request) {
	request.ParseForm()
	username := request.Form.Get("username")
	password := request.Form.Get("password")

	var userID int
	loginValid := false

	if len(username) > 0 && len(password) > 0 {
		row := handler.DB.QueryRow(
			request.Context(),
			"select id, password from alert_user where username = $1",
			username,
		)

		var passwordHash string

		if err := row.Scan(&userID, &passwordHash); err == nil {
			if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil {
				loginValid = true
			}
		}
	}

	if loginValid {
		err := session.SaveUserInSession(
			writer,
			request,
			&model.User{ID: userID, Username: username},
		)

		if err != nil {
			util.RespondInternalServerError(writer, err)

			return
		}

		http.Redirect(writer, request, "/api/alerts", http.StatusFound)
	} else {
		handler.HandleViewLoginForm(writer, request)
	}
}

func (handler *Handler) HandleLogout(writer http.ResponseWriter, request *http.Request) {
	session.ClearSession(writer, request)
	http.Redirect(writer, request, "/login", http.StatusFound)
}
