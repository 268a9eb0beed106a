package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

const (
	TagActivation    = "account-activation"
	TagResetPassword = "password-reset"

	subjectActivation    = "Account activation"
	subjectResetPassword = "Password Reset"
)

var activationTemplate = template.Must(template.New("activation").Parse(`Hello,
<br/>
Welcome to the app!
<br/><br/>
To verify your email, please click the link below.
<br/>
<a target="_blank" href="{{.Link}}">{{.Link}}</a>
<br/><br/>
Thanks,
<br/>
Admin Team`))

var resetPasswordTemplate = template.Must(template.New("reset_password").Parse(`<h1>Please click the link below to reset your password</h1>
<a target="_blank" href="{{.Link}}">{{.Link}}</a>`))

type templateData struct {
	Link string
}

// Composer 生成账户生命周期邮件，链接指向前端 CLIENT_URL。
type Composer struct {
	clientURL string
	from      string
}

func NewComposer(clientURL, from string) *Composer {
	return &Composer{
		clientURL: strings.TrimRight(strings.TrimSpace(clientURL), "/"),
		from:      from,
	}
}

// ActivationEmail links to {CLIENT_URL}/auth/activate/{token}.
func (c *Composer) ActivationEmail(to, token string) (Message, error) {
	link := c.clientURL + "/auth/activate/" + url.PathEscape(token)
	return c.compose(activationTemplate, to, subjectActivation, TagActivation, link)
}

// ResetPasswordEmail links to {CLIENT_URL}/auth/password/reset/{token}.
func (c *Composer) ResetPasswordEmail(to, token string) (Message, error) {
	link := c.clientURL + "/auth/password/reset/" + url.PathEscape(token)
	return c.compose(resetPasswordTemplate, to, subjectResetPassword, TagResetPassword, link)
}

func (c *Composer) compose(tpl *template.Template, to, subject, tag, link string) (Message, error) {
	var body bytes.Buffer
	if err := tpl.Execute(&body, templateData{Link: link}); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", tpl.Name(), err)
	}
	return Message{
		From:    c.from,
		To:      to,
		Subject: subject,
		HTML:    body.String(),
		Tag:     tag,
		Link:    link,
	}, nil
}
