package page

// User-facing texts.
const (
	MsgCreated       = "消费项添加成功！"
	MsgCreateFailed  = "添加失败："
	MsgCreateNetwork = "网络错误，添加失败！"

	MsgDeleteConfirm = "确认删除ID为%s的消费项吗？"
	MsgDeleted       = "删除成功！"
	MsgDeleteFailed  = "删除失败："
	MsgDeleteNetwork = "网络错误，删除失败！"

	MsgRetagFailed  = "修改打标失败："
	MsgRetagNetwork = "网络错误，修改失败！"

	MsgUseWindowRequired = "开始/结束使用时间不能为空！"
	MsgNoModalTarget     = "请先选择要设置日均价的消费项！"
	MsgDailyPriceSaved   = "日均价设置成功！"
	MsgDailyPriceFailed  = "设置失败："
	MsgDailyPriceNetwork = "网络错误，设置失败！"

	MsgReceiveConfirm = "确认收货吗？收货后会计入账单统计！"
	MsgReceived       = "确认收货成功！"
	MsgReceiveFailed  = "确认失败："
	MsgReceiveNetwork = "网络错误，确认失败！"

	MsgSubTypeRequired = "请选择细分类型！"
	MsgPriceEmpty      = "暂无该类型的历史价格数据～"
	MsgPriceNetwork    = "网络错误，查询失败！"

	MsgRemoveTagTitle   = "移除标签"
	MsgRemoveTagConfirm = "确认移除该消费项的标签吗？"
	MsgTagRemoved       = "标签已移除！"

	MsgRateLimited = "操作过于频繁，请稍后再试！"
	MsgLoadFailed  = "数据加载失败，请稍后刷新重试。"
)
