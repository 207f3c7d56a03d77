package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type Client struct {
	Bot          *tgbotapi.BotAPI
	UpdateConfig tgbotapi.UpdateConfig
	logger       *logrus.Logger
}

func NewClient(token string, debug bool, logger *logrus.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = debug

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	logger.Infof("Authorized on account %s", bot.Self.UserName)
	return &Client{
		Bot:          bot,
		UpdateConfig: updateConfig,
		logger:       logger,
	}, nil
}

// Send implements the handler's sender and logs delivery failures instead
// of dropping them silently.
func (c *Client) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	sent, err := c.Bot.Send(msg)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to send Telegram message")
	}
	return sent, err
}

// Updates starts long polling.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	return c.Bot.GetUpdatesChan(c.UpdateConfig)
}

// Stop ends long polling.
func (c *Client) Stop() {
	c.Bot.StopReceivingUpdates()
}
