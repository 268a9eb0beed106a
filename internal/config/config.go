package config

import (
	"errors"
	"strings"
	"time"

	"accounts/internal/auth"

	"github.com/caarlos0/env/v10"
	"github.com/sirupsen/logrus"
)

const (
	MailDriverLog      = "log"
	MailDriverPostmark = "postmark"
)

type Config struct {
	HTTPPort  string `env:"HTTP_PORT" envDefault:"8080"`
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:3000"`

	DBType     string `env:"DB_TYPE" envDefault:"sqlite"`
	DSNURL     string `env:"DSN_URL" envDefault:""`
	DBUser     string `env:"DB_USER" envDefault:""`
	DBPassword string `env:"DB_PASSWORD" envDefault:""`
	DBAddr     string `env:"DB_ADDR" envDefault:""`
	DBName     string `env:"DB_NAME" envDefault:"accounts"`
	DBPath     string `env:"DB_PATH" envDefault:"datas/accounts.db"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`

	// 令牌签名密钥，缺失时进程拒绝启动
	JWTActivationSecret    string        `env:"JWT_ACTIVATION_SECRET,required,notEmpty"`
	JWTAuthSecret          string        `env:"JWT_AUTH_SECRET,required,notEmpty"`
	JWTResetPasswordSecret string        `env:"JWT_RESET_PASSWORD_SECRET,required,notEmpty"`
	JWTIssuer              string        `env:"JWT_ISSUER" envDefault:"accounts"`
	JWTActivationTTL       time.Duration `env:"JWT_ACTIVATION_TTL" envDefault:"10m"`
	JWTAuthTTL             time.Duration `env:"JWT_AUTH_TTL" envDefault:"168h"`
	JWTResetPasswordTTL    time.Duration `env:"JWT_RESET_PASSWORD_TTL" envDefault:"10m"`

	// 邮件发送配置
	EmailFrom            string `env:"EMAIL_FROM,required,notEmpty"`
	MailDriver           string `env:"MAIL_DRIVER" envDefault:"log"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`

	// 初始管理员账户
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME" envDefault:"Admin"`

	// 邮件投递归档存储，none 表示关闭
	ArchiveType     string `env:"ARCHIVE_TYPE" envDefault:"none"`
	ArchiveLocalDir string `env:"ARCHIVE_LOCAL_DIR" envDefault:"datas/mail-archive"`

	// S3 兼容存储配置
	ArchiveS3Region          string `env:"ARCHIVE_S3_REGION"`
	ArchiveS3Bucket          string `env:"ARCHIVE_S3_BUCKET"`
	ArchiveS3Prefix          string `env:"ARCHIVE_S3_PREFIX"`
	ArchiveS3Endpoint        string `env:"ARCHIVE_S3_ENDPOINT"`
	ArchiveS3AccessKeyID     string `env:"ARCHIVE_S3_ACCESS_KEY_ID"`
	ArchiveS3SecretAccessKey string `env:"ARCHIVE_S3_SECRET_ACCESS_KEY"`
	ArchiveS3SessionToken    string `env:"ARCHIVE_S3_SESSION_TOKEN"`
	ArchiveS3ForcePathStyle  bool   `env:"ARCHIVE_S3_FORCE_PATH_STYLE" envDefault:"false"`

	// 阿里云 OSS 存储配置
	ArchiveOSSEndpoint        string `env:"ARCHIVE_OSS_ENDPOINT"`
	ArchiveOSSBucket          string `env:"ARCHIVE_OSS_BUCKET"`
	ArchiveOSSPrefix          string `env:"ARCHIVE_OSS_PREFIX"`
	ArchiveOSSAccessKeyID     string `env:"ARCHIVE_OSS_ACCESS_KEY_ID"`
	ArchiveOSSAccessKeySecret string `env:"ARCHIVE_OSS_ACCESS_KEY_SECRET"`

	// 腾讯云 COS 存储配置
	ArchiveCOSBucketURL string `env:"ARCHIVE_COS_BUCKET_URL"`
	ArchiveCOSPrefix    string `env:"ARCHIVE_COS_PREFIX"`
	ArchiveCOSSecretID  string `env:"ARCHIVE_COS_SECRET_ID"`
	ArchiveCOSSecretKey string `env:"ARCHIVE_COS_SECRET_KEY"`

	// Cloudflare R2 存储配置
	ArchiveR2AccountID       string `env:"ARCHIVE_R2_ACCOUNT_ID"`
	ArchiveR2Endpoint        string `env:"ARCHIVE_R2_ENDPOINT"`
	ArchiveR2Region          string `env:"ARCHIVE_R2_REGION" envDefault:"auto"`
	ArchiveR2Bucket          string `env:"ARCHIVE_R2_BUCKET"`
	ArchiveR2Prefix          string `env:"ARCHIVE_R2_PREFIX"`
	ArchiveR2AccessKeyID     string `env:"ARCHIVE_R2_ACCESS_KEY_ID"`
	ArchiveR2SecretAccessKey string `env:"ARCHIVE_R2_SECRET_ACCESS_KEY"`
}

func ParseConfig() (Config, error) {
	var conf Config
	if err := env.Parse(&conf); err != nil {
		logrus.WithError(err).Error("env.Parse error")
		return Config{}, err
	}
	if err := conf.Validate(); err != nil {
		logrus.WithError(err).Error("invalid configuration")
		return Config{}, err
	}
	return conf, nil
}

// Validate checks cross-field requirements env tags cannot express.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.MailDriver)) {
	case MailDriverLog:
	case MailDriverPostmark:
		if strings.TrimSpace(c.PostmarkServerToken) == "" || strings.TrimSpace(c.PostmarkAccountToken) == "" {
			return errors.New("postmark mail driver requires POSTMARK_SERVER_TOKEN and POSTMARK_ACCOUNT_TOKEN")
		}
	default:
		return errors.New("unsupported MAIL_DRIVER: " + c.MailDriver)
	}
	if c.JWTActivationTTL <= 0 || c.JWTAuthTTL <= 0 || c.JWTResetPasswordTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

// TokenConfig extracts the token codec settings.
func (c Config) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Issuer:           c.JWTIssuer,
		ActivationSecret: c.JWTActivationSecret,
		ActivationTTL:    c.JWTActivationTTL,
		SessionSecret:    c.JWTAuthSecret,
		SessionTTL:       c.JWTAuthTTL,
		ResetSecret:      c.JWTResetPasswordSecret,
		ResetTTL:         c.JWTResetPasswordTTL,
	}
}
